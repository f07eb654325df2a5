package api

import (
	"testing"
	"time"

	"github.com/achievemetrics/facpoints/internal/services"
)

func TestMemoryStoreResponseCopiesAnswers(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2024, time.September, 10, 12, 0, 0, 0, time.UTC)

	inserted, err := store.InsertResponse(&services.SurveyResponse{
		ID:           "r1",
		InvitationID: "inv1",
		Answers:      map[string]int{"comm_unmc": 1},
		Status:       services.ResponseDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("insert response: %v", err)
	}

	// Mutating the returned map must not reach the stored record.
	inserted.Answers["comm_unmc"] = 99
	inserted.Answers["dept_gr_host"] = 5

	stored, err := store.GetResponseByInvitation("inv1")
	if err != nil {
		t.Fatalf("get response: %v", err)
	}
	if stored.Answers["comm_unmc"] != 1 {
		t.Fatalf("stored answer changed through returned map: %v", stored.Answers)
	}
	if _, ok := stored.Answers["dept_gr_host"]; ok {
		t.Fatalf("stored answers gained a key through returned map: %v", stored.Answers)
	}

	// And mutating a read result must not reach the store either.
	stored.Answers["comm_unmc"] = 42
	again, err := store.GetResponseByInvitation("inv1")
	if err != nil {
		t.Fatalf("get response: %v", err)
	}
	if again.Answers["comm_unmc"] != 1 {
		t.Fatalf("stored answer changed through read copy: %v", again.Answers)
	}
}
