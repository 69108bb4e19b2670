package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader defines the column order of the CSV output.
var csvHeader = []string{
	"username",
	"user_id",
	"real_name",
	"linkedin_url",
	"location",
	"bio",
	"website",
	"verified",
	"conversation_summary",
	"message_count",
	"last_message_date",
}

// WriteCSV renders rows as CSV, header first.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		verified := ""
		if row.Verified {
			verified = "yes"
		}
		record := []string{
			row.Username,
			row.UserID,
			row.RealName,
			row.LinkedInURL,
			row.Location,
			row.Bio,
			row.Website,
			verified,
			row.Summary,
			strconv.Itoa(row.MessageCount),
			row.LastMessageDate,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for %s: %w", row.UserID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
