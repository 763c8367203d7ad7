package usecase

import (
	"context"
	"errors"
	"testing"

	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
)

// sendAs appends a message through the use case and returns it.
func sendAs(t *testing.T, repo *memRepo, convID, sender, body string) *messaging.Message {
	t.Helper()
	out, err := NewSendMessageUseCase(repo, nil).Execute(context.Background(), SendMessageInput{
		ConversationID: convID,
		SenderID:       &sender,
		Body:           &body,
	})
	if err != nil {
		t.Fatalf("send as %s: %v", sender, err)
	}
	return out.Message
}

func TestMarkRead(t *testing.T) {
	t.Parallel()

	t.Run("receipts and promotion in a direct conversation", func(t *testing.T) {
		t.Parallel()
		repo := newMemRepo()
		convID := seedDirect(t, repo)
		m1 := sendAs(t, repo, convID, "alice", "first")
		m2 := sendAs(t, repo, convID, "alice", "second")
		uc := NewMarkReadUseCase(repo, nil)

		result, err := uc.Execute(context.Background(), MarkReadInput{ConversationID: convID, ReaderID: "bob"})
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if len(result.ReceiptMessageIDs) != 2 {
			t.Fatalf("receipts = %v, want both messages", result.ReceiptMessageIDs)
		}
		// Bob is the only non-sender participant, so both messages promote.
		if len(result.ReadMessageIDs) != 2 {
			t.Fatalf("read ids = %v, want both messages", result.ReadMessageIDs)
		}
		for _, id := range []string{m1.ID, m2.ID} {
			m, err := repo.GetMessage(context.Background(), id)
			if err != nil {
				t.Fatalf("get message: %v", err)
			}
			if m.DeliveryStatus != messaging.DeliveryRead {
				t.Fatalf("message %s status = %d, want read", id, m.DeliveryStatus)
			}
			if m.ReadAt == nil {
				t.Fatalf("message %s read_at not set", id)
			}
		}
	})

	t.Run("idempotent on repeat", func(t *testing.T) {
		t.Parallel()
		repo := newMemRepo()
		convID := seedDirect(t, repo)
		sendAs(t, repo, convID, "alice", "hello")
		uc := NewMarkReadUseCase(repo, nil)

		if _, err := uc.Execute(context.Background(), MarkReadInput{ConversationID: convID, ReaderID: "bob"}); err != nil {
			t.Fatalf("first mark: %v", err)
		}
		result, err := uc.Execute(context.Background(), MarkReadInput{ConversationID: convID, ReaderID: "bob"})
		if err != nil {
			t.Fatalf("second mark: %v", err)
		}
		if len(result.ReceiptMessageIDs) != 0 || len(result.ReadMessageIDs) != 0 {
			t.Fatalf("repeat produced changes: %+v", result)
		}
	})

	t.Run("reader's own messages are untouched", func(t *testing.T) {
		t.Parallel()
		repo := newMemRepo()
		convID := seedDirect(t, repo)
		mine := sendAs(t, repo, convID, "bob", "my own")
		uc := NewMarkReadUseCase(repo, nil)

		result, err := uc.Execute(context.Background(), MarkReadInput{ConversationID: convID, ReaderID: "bob"})
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if len(result.ReceiptMessageIDs) != 0 {
			t.Fatalf("receipt created for own message: %v", result.ReceiptMessageIDs)
		}
		m, _ := repo.GetMessage(context.Background(), mine.ID)
		if m.DeliveryStatus != messaging.DeliverySent {
			t.Fatalf("own message status = %d, want sent", m.DeliveryStatus)
		}
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		t.Parallel()
		repo := newMemRepo()
		convID := seedDirect(t, repo)
		uc := NewMarkReadUseCase(repo, nil)
		_, err := uc.Execute(context.Background(), MarkReadInput{ConversationID: convID, ReaderID: "mallory"})
		if !errors.Is(err, messaging.ErrNotMember) {
			t.Fatalf("err = %v, want ErrNotMember", err)
		}
	})

	t.Run("drops the reader's cached unread counter", func(t *testing.T) {
		t.Parallel()
		repo := newMemRepo()
		convID := seedDirect(t, repo)
		sendAs(t, repo, convID, "alice", "unread")
		c := newFakeCache()
		c.values[unreadCacheKey("bob")] = "1"
		uc := NewMarkReadUseCase(repo, c)

		if _, err := uc.Execute(context.Background(), MarkReadInput{ConversationID: convID, ReaderID: "bob"}); err != nil {
			t.Fatalf("execute: %v", err)
		}
		if _, ok := c.values[unreadCacheKey("bob")]; ok {
			t.Fatal("reader counter not invalidated")
		}
	})
}

func TestMarkDelivered(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	convID := seedDirect(t, repo)
	m := sendAs(t, repo, convID, "alice", "knock knock")
	uc := NewMarkDeliveredUseCase(repo)

	out, err := uc.Execute(context.Background(), MarkDeliveredInput{MessageID: m.ID, UserID: "bob"})
	if err != nil {
		t.Fatalf("first execute: %v", err)
	}
	if !out.Advanced {
		t.Fatal("first delivery did not advance")
	}
	if out.ConversationID != convID {
		t.Fatalf("conversation = %q, want the message's own %q", out.ConversationID, convID)
	}

	out, err = uc.Execute(context.Background(), MarkDeliveredInput{MessageID: m.ID, UserID: "bob"})
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if out.Advanced {
		t.Fatal("second delivery reported as advanced")
	}

	// Read outranks delivered; the status must not move backward.
	if _, err := NewMarkReadUseCase(repo, nil).Execute(context.Background(), MarkReadInput{ConversationID: convID, ReaderID: "bob"}); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	out, err = uc.Execute(context.Background(), MarkDeliveredInput{MessageID: m.ID, UserID: "bob"})
	if err != nil {
		t.Fatalf("post-read execute: %v", err)
	}
	if out.Advanced {
		t.Fatal("delivered overwrote read")
	}
	got, _ := repo.GetMessage(context.Background(), m.ID)
	if got.DeliveryStatus != messaging.DeliveryRead {
		t.Fatalf("status = %d, want read", got.DeliveryStatus)
	}
}

func TestMarkDeliveredAccess(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	convID := seedDirect(t, repo)
	m := sendAs(t, repo, convID, "alice", "for bob's eyes")
	uc := NewMarkDeliveredUseCase(repo)

	// Outsiders cannot touch messages in conversations they do not belong to.
	_, err := uc.Execute(context.Background(), MarkDeliveredInput{MessageID: m.ID, UserID: "mallory"})
	if !errors.Is(err, messaging.ErrNotMember) {
		t.Fatalf("outsider err = %v, want ErrNotMember", err)
	}
	got, _ := repo.GetMessage(context.Background(), m.ID)
	if got.DeliveryStatus != messaging.DeliverySent {
		t.Fatalf("status = %d, outsider advanced it", got.DeliveryStatus)
	}

	_, err = uc.Execute(context.Background(), MarkDeliveredInput{MessageID: "missing", UserID: "bob"})
	if !errors.Is(err, messaging.ErrNotFound) {
		t.Fatalf("missing message err = %v, want ErrNotFound", err)
	}
}
