package authgoogle

import (
	"testing"

	"github.com/LunarMoonDev/user-location/internal/domain/models"
)

func TestDecide(t *testing.T) {
	fresh := models.Account{
		Provider:    "google",
		Subject:     "sub-1",
		AccessToken: "at-new",
		ExpireDate:  1800000000,
	}

	cases := []struct {
		name     string
		existing *models.User
		want     Action
	}{
		{
			name:     "first login creates",
			existing: nil,
			want:     ActionCreate,
		},
		{
			name:     "stored user without an account gets one",
			existing: &models.User{Email: "a@b.com"},
			want:     ActionRefresh,
		},
		{
			name: "soft-deleted user is revived",
			existing: &models.User{
				Email:      "a@b.com",
				IsDisabled: true,
				Account:    &models.Account{Provider: "google", Subject: "sub-1", AccessToken: "at-new"},
			},
			want: ActionRefresh,
		},
		{
			name: "stale token is refreshed",
			existing: &models.User{
				Email:   "a@b.com",
				Account: &models.Account{Provider: "google", Subject: "sub-1", AccessToken: "at-old"},
			},
			want: ActionRefresh,
		},
		{
			name: "matching token is kept",
			existing: &models.User{
				Email:   "a@b.com",
				Account: &models.Account{Provider: "google", Subject: "sub-1", AccessToken: "at-new"},
			},
			want: ActionKeep,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.existing, fresh); got != tc.want {
				t.Errorf("Decide = %v, want %v", got, tc.want)
			}
		})
	}
}
