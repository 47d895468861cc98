//go:build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Good-for-good/goodforgood-sub000/internal/db"
	"github.com/Good-for-good/goodforgood-sub000/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateMember_ClearsNullableFields(t *testing.T) {
	t.Cleanup(func() { testutil.Reset(t) })
	q := db.New(testutil.GetPool())
	ctx := context.Background()

	m, err := q.CreateMember(ctx, db.CreateMemberParams{
		Name:          "Ravi Secretary",
		Email:         "ravi@trust.org",
		Phone:         ptr("+91 98765 43210"),
		Address:       ptr("12 Temple Road"),
		TrusteeRole:   ptr("secretary"),
		AccountStatus: db.AccountStatusActive,
		PasswordHash:  "x",
	})
	require.NoError(t, err)

	got, err := q.UpdateMember(ctx, db.UpdateMemberParams{ID: m.ID, TrusteeRole: ptr(""), Phone: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, got.TrusteeRole)
	assert.Nil(t, got.Phone)
	require.NotNil(t, got.Address)
	assert.Equal(t, "12 Temple Road", *got.Address)

	got, err = q.UpdateMember(ctx, db.UpdateMemberParams{ID: m.ID, TrusteeRole: ptr("treasurer")})
	require.NoError(t, err)
	require.NotNil(t, got.TrusteeRole)
	assert.Equal(t, "treasurer", *got.TrusteeRole)

	got, err = q.UpdateMember(ctx, db.UpdateMemberParams{ID: m.ID, Name: ptr("Ravi K.")})
	require.NoError(t, err)
	require.NotNil(t, got.TrusteeRole, "omitted role must be kept")
	assert.Equal(t, "treasurer", *got.TrusteeRole)
}

func TestUpdateDonation_ClearsNotes(t *testing.T) {
	t.Cleanup(func() { testutil.Reset(t) })
	q := db.New(testutil.GetPool())
	ctx := context.Background()

	d, err := q.CreateDonation(ctx, db.CreateDonationParams{
		Amount:        250,
		Purpose:       "Library books",
		DonorName:     "S. Iyer",
		Type:          "upi",
		Date:          time.Now(),
		Notes:         ptr("Pledged at the spring fair"),
		ReceiptNumber: ptr("R-0042"),
	})
	require.NoError(t, err)

	got, err := q.UpdateDonation(ctx, db.UpdateDonationParams{ID: d.ID, Notes: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, got.Notes)
	require.NotNil(t, got.ReceiptNumber)
	assert.Equal(t, "R-0042", *got.ReceiptNumber)
}
