package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// DeployRenderer renders the final summary of a stack run
type DeployRenderer struct {
	out   io.Writer
	color bool
	title cases.Caser
}

// NewDeployRenderer creates a new deploy summary renderer
func NewDeployRenderer(out io.Writer, color bool) *DeployRenderer {
	return &DeployRenderer{
		out:   out,
		color: color,
		title: cases.Title(language.English),
	}
}

// Render renders the run summary
func (r *DeployRenderer) Render(result *usecase.DeployStackResult) error {
	heading := fmt.Sprintf("%s Stack on %s", r.title.String(result.Plan.Name), result.Network)
	if result.DryRun {
		heading += " (dry run)"
	}
	if r.color {
		fmt.Fprintf(r.out, "\n%s\n", color.New(color.Bold).Sprint(heading))
	} else {
		fmt.Fprintf(r.out, "\n%s\n", heading)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Component", "Address", "Status"})

	for _, outcome := range result.Outcomes {
		status := "deployed"
		if outcome.Skipped {
			status = "skipped"
		}
		if result.DryRun && !outcome.Skipped {
			status = "planned"
		}

		address := ""
		if !result.DryRun || outcome.Skipped {
			address = outcome.Address.Hex()
		}
		t.AppendRow(table.Row{outcome.Key, address, status})
	}
	t.Render()

	fmt.Fprintf(r.out, "\n%d deployed, %d skipped", result.Deployed(), len(result.Outcomes)-result.Deployed())
	if n := result.WiringDone + result.WiringSkipped; n > 0 {
		fmt.Fprintf(r.out, ", %d/%d wiring calls issued", result.WiringDone, n)
	}
	if result.KeysRegistered {
		fmt.Fprint(r.out, ", verifying keys registered")
	} else if result.KeysSkipped {
		fmt.Fprint(r.out, ", verifying keys already registered")
	}
	fmt.Fprintln(r.out)

	return nil
}

var _ Renderer[*usecase.DeployStackResult] = (*DeployRenderer)(nil)
