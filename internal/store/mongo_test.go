package store

import (
	"testing"
	"time"

	"multitenant-rag-platform/models"

	"go.mongodb.org/mongo-driver/bson"
)

func TestRecordQueryUpdateUsesAtomicIncrements(t *testing.T) {
	now := time.Now().UTC()
	u := recordQueryUpdate(now)

	inc, ok := u["$inc"].(bson.M)
	if !ok {
		t.Fatal("counter update must use $inc")
	}
	if inc["total_queries"] != 1 || inc["queries_today"] != 1 {
		t.Fatalf("unexpected increments: %+v", inc)
	}
	set, ok := u["$set"].(bson.M)
	if !ok || set["last_query_at"] != now {
		t.Fatalf("last_query_at not set atomically: %+v", u)
	}
	if _, replaces := u["popular_queries"]; replaces {
		t.Fatal("counter update must not touch the popular query list")
	}
}

func TestPopularQueryPushDistinctAndBounded(t *testing.T) {
	filter := popularQueryFilter("acme_com", "refund policy")
	cond, ok := filter["popular_queries"].(bson.M)
	if !ok || cond["$ne"] != "refund policy" {
		t.Fatalf("push must be guarded by a $ne filter: %+v", filter)
	}
	if filter["tenant_id"] != "acme_com" {
		t.Fatalf("filter missing tenant scope: %+v", filter)
	}

	update := popularQueryUpdate("refund policy")
	push, ok := update["$push"].(bson.M)["popular_queries"].(bson.M)
	if !ok {
		t.Fatalf("expected $push update: %+v", update)
	}
	each, ok := push["$each"].([]string)
	if !ok || len(each) != 1 || each[0] != "refund policy" {
		t.Fatalf("unexpected $each: %+v", push)
	}
	if push["$slice"] != -models.PopularQueryLimit {
		t.Fatalf("list not bounded to last %d: %+v", models.PopularQueryLimit, push)
	}
}

func TestDocumentRemovedUpdateUsesAtomicDecrements(t *testing.T) {
	filter := documentRemovedFilter("acme_com")
	guard, ok := filter["total_documents"].(bson.M)
	if !ok || guard["$gt"] != 0 {
		t.Fatalf("decrement must be guarded against going negative: %+v", filter)
	}

	update := documentRemovedUpdate(models.FileTypePDF)
	inc, ok := update["$inc"].(bson.M)
	if !ok {
		t.Fatal("stats decrement must use $inc")
	}
	if inc["total_documents"] != -1 || inc["document_types.pdf"] != -1 {
		t.Fatalf("unexpected decrements: %+v", inc)
	}
}

func TestPruneFileTypeOnlyAtZero(t *testing.T) {
	filter := pruneFileTypeFilter("acme_com", models.FileTypePDF)
	cond, ok := filter["document_types.pdf"].(bson.M)
	if !ok || cond["$lte"] != 0 {
		t.Fatalf("prune must only match zero counts: %+v", filter)
	}

	update := pruneFileTypeUpdate(models.FileTypePDF)
	unset, ok := update["$unset"].(bson.M)
	if !ok {
		t.Fatal("prune must use $unset")
	}
	if _, present := unset["document_types.pdf"]; !present {
		t.Fatalf("prune targets the wrong field: %+v", update)
	}
}
