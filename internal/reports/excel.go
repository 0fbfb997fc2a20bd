// Package reports builds the admin Excel export.
package reports

import (
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"tutorbot/internal/models"
)

const (
	sheetUsers       = "Users"
	sheetSubmissions = "Submissions"
	sheetWithdrawals = "Withdrawals"
	dateLayout       = "02.01.2006 15:04"
)

// ExportFileName is the attachment name for an export made at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("tutorial_report_%s.xlsx", t.Format("20060102_150405"))
}

// BuildWorkbook writes users, submissions and withdrawals into one XLSX file.
func BuildWorkbook(users []models.User, subs []models.PaymentSubmission, withdrawals []models.WithdrawalRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("BuildWorkbook: close workbook: %v", err)
		}
	}()

	index, err := f.NewSheet(sheetUsers)
	if err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", sheetUsers, err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if index, err = f.GetSheetIndex(sheetUsers); err == nil {
		f.SetActiveSheet(index)
	}

	userRows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		referredBy := ""
		if u.ReferredBy != nil {
			referredBy = fmt.Sprint(*u.ReferredBy)
		}
		userRows = append(userRows, []interface{}{
			u.ID, u.Name(), u.DisplayName, u.Phone, string(u.Category), string(u.PaymentMethod),
			string(u.Status), referredBy, u.ReferralCount, u.RewardBalance.InexactFloat64(), u.CreatedAt.Format(dateLayout),
		})
	}
	if err := writeSheet(f, sheetUsers, []string{
		"User ID", "Name", "Telegram name", "Phone", "Stream", "Payment method",
		"Status", "Referred by", "Referrals", "Reward balance", "Joined",
	}, userRows); err != nil {
		return nil, err
	}

	subRows := make([][]interface{}, 0, len(subs))
	for _, s := range subs {
		reviewer, decided := "", ""
		if s.ReviewerID != nil {
			reviewer = fmt.Sprint(*s.ReviewerID)
		}
		if s.DecidedAt != nil {
			decided = s.DecidedAt.Format(dateLayout)
		}
		subRows = append(subRows, []interface{}{
			s.ID.String(), s.UserID, string(s.Status), s.ProofKind, reviewer, s.CreatedAt.Format(dateLayout), decided,
		})
	}
	if _, err := f.NewSheet(sheetSubmissions); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", sheetSubmissions, err)
	}
	if err := writeSheet(f, sheetSubmissions, []string{
		"Submission ID", "User ID", "Status", "Proof", "Reviewer", "Uploaded", "Decided",
	}, subRows); err != nil {
		return nil, err
	}

	wRows := make([][]interface{}, 0, len(withdrawals))
	for _, w := range withdrawals {
		paid := ""
		if w.PaidAt != nil {
			paid = w.PaidAt.Format(dateLayout)
		}
		wRows = append(wRows, []interface{}{
			w.ID.String(), w.UserID, w.Amount.InexactFloat64(), string(w.Status), string(w.PaymentMethod),
			w.AccountNumber, w.AccountName, w.CreatedAt.Format(dateLayout), paid,
		})
	}
	if _, err := f.NewSheet(sheetWithdrawals); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", sheetWithdrawals, err)
	}
	if err := writeSheet(f, sheetWithdrawals, []string{
		"Request ID", "User ID", "Amount", "Status", "Method", "Account number", "Account name", "Requested", "Paid",
	}, wRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("%s header %s: %w", sheet, cell, err)
		}
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, r+2, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return fmt.Errorf("%s column width: %w", sheet, err)
	}
	return nil
}
