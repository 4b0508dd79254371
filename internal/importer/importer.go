// Package importer bulk-loads users from CSV files.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

// Rows are: name, active ("0" disables), space-separated tags, identifier.
const recordFields = 4

// Parse reads CSV rows into users. A malformed row aborts the whole parse; an
// import should not half-apply a member list.
func Parse(r io.Reader) ([]domain.User, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = recordFields

	var users []domain.User
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse row %d: %w", line, err)
		}

		identifier := strings.TrimSpace(record[3])
		if identifier == "" {
			return nil, fmt.Errorf("row %d has no identifier", line)
		}

		users = append(users, domain.User{
			Name:        strings.TrimSpace(record[0]),
			Active:      record[1] != "0",
			Tags:        splitTags(record[2]),
			Identifiers: []string{identifier},
		})
	}
	return users, nil
}

func splitTags(field string) []string {
	tags := strings.Fields(field)
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// UserSaver is the slice of the backend client the importer needs.
type UserSaver interface {
	SaveUser(ctx context.Context, u domain.User) (*domain.User, error)
}

type Report struct {
	Succeeded int
	Failed    int
}

func (r Report) Total() int {
	return r.Succeeded + r.Failed
}

// Run uploads the users one by one, counting per-row outcomes. Failures are
// logged and skipped; the rest of the import continues.
func Run(ctx context.Context, saver UserSaver, users []domain.User) Report {
	var report Report
	for i, user := range users {
		if _, err := saver.SaveUser(ctx, user); err != nil {
			log.Printf("failed to import user %q: %v", user.Name, err)
			report.Failed++
		} else {
			report.Succeeded++
		}
		log.Printf("import progress: %d%%", (i+1)*100/len(users))
	}
	return report
}
