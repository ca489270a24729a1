package usecase

import (
	"context"
	"testing"

	"github.com/televi1/televi/internal/domain"
)

func TestDeliverUsesTheAccountsBot(t *testing.T) {
	bots := newMockBotRepo()
	accounts := newMockAccountRepo()
	provider := newFakeProvider()
	api := newFakeAPI()
	provider.apis["1:master"] = api

	master := bots.add(domain.Bot{Username: "master_bot", Token: "1:master", IsMaster: true})
	owner := accounts.chatUser(master.ID, 500)

	uc := NewNotificationUsecase(accounts, bots, provider, nil)
	if err := uc.Deliver(context.Background(), domain.OwnerNotification{AccountID: owner.ID, Text: "revoked"}); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if len(api.sent) != 1 || api.sent[0].ChatID != 500 || api.sent[0].Text != "revoked" {
		t.Fatalf("unexpected sends %+v", api.sent)
	}
}

func TestDeliverDropsUnreachableAccounts(t *testing.T) {
	bots := newMockBotRepo()
	accounts := newMockAccountRepo()
	provider := newFakeProvider()
	api := newFakeAPI()
	api.sendErr = domain.ErrForbidden
	provider.apis["1:master"] = api

	master := bots.add(domain.Bot{Username: "master_bot", Token: "1:master", IsMaster: true})
	owner := accounts.chatUser(master.ID, 500)
	staff, _ := accounts.CreateStaff(context.Background(), domain.Account{Kind: domain.AccountKindStaff})

	uc := NewNotificationUsecase(accounts, bots, provider, nil)
	for _, id := range []int64{owner.ID, staff.ID, 999} {
		if err := uc.Deliver(context.Background(), domain.OwnerNotification{AccountID: id, Text: "x"}); err != nil {
			t.Fatalf("account %d: expected drop, got %v", id, err)
		}
	}
}
