// Package reports renders settlement reports for completed draws.
package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/inzamam-virk/lottery-app/internal/models"
)

const (
	SummarySheet = "Summary"
	BetsSheet    = "Bets"
)

var betHeader = []interface{}{
	"Bet ID", "Dealer ID", "Client Name", "Client Phone", "Number", "Stake", "Status", "Potential Win", "Refund", "Placed At",
}

// DrawReport builds an XLSX workbook for one draw: a summary sheet with the
// draw totals and a bets sheet with one row per bet.
func DrawReport(draw *models.Draw, bets []*models.Bet, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSummary(f, draw, loc); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(BetsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create bets sheet: %w", err)
	}
	if err := writeBets(f, bets, loc); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteDrawReport streams the workbook to w.
func WriteDrawReport(w io.Writer, draw *models.Draw, bets []*models.Bet, loc *time.Location) error {
	f, err := DrawReport(draw, bets, loc)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, draw *models.Draw, loc *time.Location) error {
	winning := ""
	if draw.WinningNumber != nil {
		winning = fmt.Sprintf("%03d", *draw.WinningNumber)
	}

	rows := [][]interface{}{
		{"Draw ID", draw.ID},
		{"Scheduled At", draw.ScheduledAt.In(loc).Format(time.RFC3339)},
		{"Status", string(draw.Status)},
		{"Winning Number", winning},
		{"Total Bets", draw.TotalBets},
		{"Total Stake", draw.TotalStake.StringFixed(2)},
		{"Winning Bets", draw.WinningBets},
		{"Total Refund", draw.TotalRefund.StringFixed(2)},
	}
	if draw.FinishedAt != nil {
		rows = append(rows, []interface{}{"Finished At", draw.FinishedAt.In(loc).Format(time.RFC3339)})
	}
	if draw.ErrorMessage != "" {
		rows = append(rows, []interface{}{"Error", draw.ErrorMessage})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 24)
}

func writeBets(f *excelize.File, bets []*models.Bet, loc *time.Location) error {
	header := betHeader
	if err := f.SetSheetRow(BetsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write bets header: %w", err)
	}

	for i, bet := range bets {
		row := []interface{}{
			bet.ID,
			bet.DealerID,
			bet.ClientName,
			bet.ClientPhone,
			bet.Number,
			bet.Stake.StringFixed(2),
			string(bet.Status),
			optionalAmount(bet.PotentialWin),
			optionalAmount(bet.RefundAmount),
			bet.CreatedAt.In(loc).Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(BetsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write bet row: %w", err)
		}
	}
	return f.SetColWidth(BetsSheet, "A", "J", 18)
}

func optionalAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
