package documents

import (
	"fmt"
	"strings"

	"github.com/pmcgroup/istock-backend/internal/models"
)

// Dashboard tracks the three post-submission statuses for the outbound,
// transfer and count menus. Receive documents come from NAV and are not
// counted here.
var (
	dashboardMenus    = []int{models.MenuOutbound, models.MenuTransfer, models.MenuCount}
	dashboardStatuses = []string{
		models.StatusPendingApproval,
		models.StatusApproved,
		models.StatusRejected,
	}
)

// DashboardStatusCount is one status bucket within a menu group.
type DashboardStatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DashboardGroup is the rollup for one menu. The shape is fixed: every
// tracked status appears, zero-valued when nothing matches.
type DashboardGroup struct {
	MenuID    int                    `json:"menuId"`
	GroupName string                 `json:"groupName"`
	Items     []DashboardStatusCount `json:"items"`
}

type dashboardRow struct {
	MenuID int    `gorm:"column:menu_id"`
	Status string `gorm:"column:status"`
	Cnt    int64  `gorm:"column:cnt"`
}

// Dashboard returns per-menu counts of the tracked statuses. Branch codes
// match exactly; creators match partially and case-insensitively, both accept
// multiple pipe-delimited values.
func (s *Service) Dashboard(branchCodes, creators []string) ([]DashboardGroup, error) {
	groups := make([]DashboardGroup, 0, len(dashboardMenus))
	for _, menuID := range dashboardMenus {
		items := make([]DashboardStatusCount, 0, len(dashboardStatuses))
		for _, status := range dashboardStatuses {
			items = append(items, DashboardStatusCount{Status: status})
		}
		groups = append(groups, DashboardGroup{
			MenuID:    menuID,
			GroupName: models.MenuName(menuID),
			Items:     items,
		})
	}

	q := s.db.Model(&models.Document{}).
		Select("menu_id, status, COUNT(*) AS cnt").
		Where("status IN ?", dashboardStatuses).
		Where("menu_id IN ?", dashboardMenus)
	if len(branchCodes) > 0 {
		q = q.Where("branch_code IN ?", branchCodes)
	}
	if len(creators) > 0 {
		conds := make([]string, 0, len(creators))
		args := make([]any, 0, len(creators))
		for _, c := range creators {
			conds = append(conds, "UPPER(created_by) LIKE UPPER(?)")
			args = append(args, "%"+c+"%")
		}
		q = q.Where(strings.Join(conds, " OR "), args...)
	}

	var rows []dashboardRow
	if err := q.Group("menu_id, status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load dashboard counts: %w", err)
	}

	for _, row := range rows {
		for gi := range groups {
			if groups[gi].MenuID != row.MenuID {
				continue
			}
			for ii := range groups[gi].Items {
				if groups[gi].Items[ii].Status == row.Status {
					groups[gi].Items[ii].Count = row.Cnt
				}
			}
		}
	}
	return groups, nil
}
