package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/inzamam-virk/lottery-app/internal/models"
)

func TestWriteDrawReport(t *testing.T) {
	slot := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	finished := slot.Add(30 * time.Second)
	winning := 42
	win := decimal.RequireFromString("9000")
	refund := decimal.RequireFromString("4")

	draw := &models.Draw{
		ID:            "draw-1",
		ScheduledAt:   slot,
		FinishedAt:    &finished,
		WinningNumber: &winning,
		Status:        models.DrawStatusCompleted,
		TotalBets:     2,
		TotalStake:    decimal.NewFromInt(30),
		WinningBets:   1,
		TotalRefund:   refund,
	}
	bets := []*models.Bet{
		{ID: "b1", DealerID: "d1", ClientName: "Ali", Number: 42, Stake: decimal.NewFromInt(10), Status: models.BetStatusWon, PotentialWin: &win, CreatedAt: slot.Add(-time.Hour)},
		{ID: "b2", DealerID: "d1", ClientName: "Sara", ClientPhone: "0300", Number: 7, Stake: decimal.NewFromInt(20), Status: models.BetStatusRefunded, RefundAmount: &refund, CreatedAt: slot.Add(-time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDrawReport(&buf, draw, bets, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, BetsSheet}, f.GetSheetList())

	v, err := f.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "draw-1", v)
	v, err = f.GetCellValue(SummarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "042", v)
	v, err = f.GetCellValue(SummarySheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "30.00", v)

	rows, err := f.GetRows(BetsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Bet ID", rows[0][0])
	assert.Equal(t, "b1", rows[1][0])
	assert.Equal(t, "9000.00", rows[1][7])
	assert.Equal(t, "4.00", rows[2][8])
}

func TestDrawReportWithoutBets(t *testing.T) {
	draw := &models.Draw{ID: "draw-2", ScheduledAt: time.Now(), Status: models.DrawStatusCancelled, ErrorMessage: "boom"}

	f, err := DrawReport(draw, nil, nil)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SummarySheet, "B4")
	require.NoError(t, err)
	assert.Empty(t, v)

	rows, err := f.GetRows(BetsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
