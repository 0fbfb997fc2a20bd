package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tutorbot/internal/models"
)

func TestBuildWorkbook(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ref := int64(1)
	users := []models.User{
		{ID: 1, FullName: "Abel", Status: models.StatusVerified, ReferralCount: 1, RewardBalance: decimal.NewFromInt(30), CreatedAt: now},
		{ID: 2, FullName: "Bethel", Status: models.StatusVerified, ReferredBy: &ref, CreatedAt: now},
	}
	subs := []models.PaymentSubmission{{ID: uuid.New(), UserID: 2, Status: models.SubmissionApproved, ProofKind: "photo", CreatedAt: now}}
	ws := []models.WithdrawalRequest{{ID: uuid.New(), UserID: 1, Amount: decimal.NewFromInt(30), Status: models.WithdrawalRequested, CreatedAt: now}}

	data, err := BuildWorkbook(users, subs, ws)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{sheetUsers, sheetSubmissions, sheetWithdrawals}, f.GetSheetList())

	rows, err := f.GetRows(sheetUsers)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "User ID", rows[0][0])
	require.Equal(t, "Bethel", rows[2][1])
	require.Equal(t, "1", rows[2][7])

	rows, err = f.GetRows(sheetWithdrawals)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "30", rows[1][2])
}

func TestExportFileName(t *testing.T) {
	require.Equal(t, "tutorial_report_20260301_100000.xlsx", ExportFileName(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
}
