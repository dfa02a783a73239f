package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/daniel0ar/maci-platform/internal/usecase"
)

var (
	networkHeaderStyle = color.New(color.BgCyan, color.FgBlack, color.Bold)
	addressStyle       = color.New(color.FgWhite)
	labelStyle         = color.New(color.FgCyan)
	timestampStyle     = color.New(color.Faint)
)

// ContractsRenderer renders registry listings as per-network tables
type ContractsRenderer struct {
	out   io.Writer
	color bool
}

// NewContractsRenderer creates a new contracts renderer
func NewContractsRenderer(out io.Writer, color bool) *ContractsRenderer {
	return &ContractsRenderer{
		out:   out,
		color: color,
	}
}

// Render renders the contract list grouped by network
func (r *ContractsRenderer) Render(result *usecase.ListContractsResult) error {
	if len(result.Contracts) == 0 {
		fmt.Fprintln(r.out, "No contracts registered")
		return nil
	}

	for _, network := range result.Networks {
		if r.color {
			fmt.Fprintln(r.out, networkHeaderStyle.Sprintf(" %s ", network))
		} else {
			fmt.Fprintf(r.out, "%s\n", network)
		}

		t := table.NewWriter()
		t.SetOutputMirror(r.out)
		t.SetStyle(table.StyleLight)
		t.Style().Format.Header = text.FormatUpper
		t.AppendHeader(table.Row{"Contract", "Address", "Tx", "Deployed"})

		for _, record := range result.Contracts {
			if record.Network != network {
				continue
			}

			key := record.Key()
			address := record.Address
			deployed := record.CreatedAt.Format("2006-01-02 15:04")
			if r.color {
				if record.Label != "" {
					key = fmt.Sprintf("%s%s", string(record.Name), labelStyle.Sprintf(":%s", record.Label))
				}
				address = addressStyle.Sprint(address)
				deployed = timestampStyle.Sprint(deployed)
			}

			t.AppendRow(table.Row{key, address, shortHash(record.TxHash), deployed})
		}

		t.Render()
		fmt.Fprintln(r.out)
	}

	return nil
}

func shortHash(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:10] + "…" + hash[len(hash)-4:]
}

var _ Renderer[*usecase.ListContractsResult] = (*ContractsRenderer)(nil)
