package notify

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
)

const (
	remoteColumnHeader    = "Remote"
	branchColumnHeader    = "Branch"
	trackingColumnHeader  = "Tracking"
	kindColumnHeader      = "Kind"
	missingMarkerConstant = "-"
	trackingArrowConstant = "-> "
	tablePaddingConstant  = 3
)

// TableRow is one line of a branch table.
type TableRow struct {
	Remote   string
	Name     string
	Tracking string
	Kind     string
	Exists   bool
}

// WriteBranchTable renders rows as an aligned table. Branches that no longer
// exist have their remote prefixed with "-".
func WriteBranchTable(writer io.Writer, rows []TableRow) {
	branchTable := table.New(remoteColumnHeader, branchColumnHeader, trackingColumnHeader, kindColumnHeader).
		WithWriter(writer).
		WithPadding(tablePaddingConstant).
		WithWidthFunc(lipgloss.Width)

	for _, row := range rows {
		remoteLabel := row.Remote
		if !row.Exists {
			remoteLabel = missingMarkerConstant + remoteLabel
		}
		trackingLabel := ""
		if len(row.Tracking) > 0 {
			trackingLabel = trackingArrowConstant + row.Tracking
		}
		branchTable.AddRow(remoteLabel, row.Name, trackingLabel, row.Kind)
	}
	branchTable.Print()
}
