package documents

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pmcgroup/istock-backend/internal/models"
)

// GenerateDocNo builds a document number `{prefix}-{YYMMDD}-{rand}` where the
// prefix follows the menu (MI/MO/MT/MC) and the random part is 1000..9999.
// Collisions are left to the primary-key check on insert.
func GenerateDocNo(menuID int, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d", models.MenuPrefix(menuID), now.Format("060102"), 1000+rand.Intn(9000))
}
