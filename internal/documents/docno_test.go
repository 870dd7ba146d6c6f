package documents

import (
	"regexp"
	"testing"
	"time"

	"github.com/pmcgroup/istock-backend/internal/models"
)

func TestGenerateDocNoFormat(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		menuID int
		prefix string
	}{
		{models.MenuReceive, "MI"},
		{models.MenuOutbound, "MO"},
		{models.MenuTransfer, "MT"},
		{models.MenuCount, "MC"},
	}
	for _, c := range cases {
		docNo := GenerateDocNo(c.menuID, now)
		pattern := regexp.MustCompile(`^` + c.prefix + `-260901-[1-9]\d{3}$`)
		if !pattern.MatchString(docNo) {
			t.Errorf("menu %d: docNo %q does not match %s", c.menuID, docNo, pattern)
		}
	}
}
