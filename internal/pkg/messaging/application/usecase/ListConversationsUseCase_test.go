package usecase

import (
	"context"
	"testing"
)

func TestListConversations(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	abID := seedDirect(t, repo)
	acID, err := repo.CreateDirectConversation(context.Background(), "alice", "carol")
	if err != nil {
		t.Fatalf("seed alice/carol: %v", err)
	}
	sendAs(t, repo, abID, "bob", "hey alice")
	sendAs(t, repo, abID, "bob", "you there?")
	uc := NewListConversationsUseCase(repo)

	summaries, err := uc.Execute(context.Background(), ListConversationsInput{UserID: "alice"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	byID := make(map[string]int64, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s.UnreadCount
	}
	if byID[abID] != 2 {
		t.Fatalf("alice/bob unread = %d, want 2", byID[abID])
	}
	if byID[acID] != 0 {
		t.Fatalf("alice/carol unread = %d, want 0", byID[acID])
	}

	// carol sees only her own thread.
	summaries, err = uc.Execute(context.Background(), ListConversationsInput{UserID: "carol"})
	if err != nil {
		t.Fatalf("execute for carol: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != acID {
		t.Fatalf("carol summaries = %+v, want only %s", summaries, acID)
	}
}
