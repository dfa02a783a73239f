package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// ContractRenderer renders a single registry record in detail
type ContractRenderer struct {
	out      io.Writer
	color    bool
	explorer string
}

// NewContractRenderer creates a new contract detail renderer
func NewContractRenderer(out io.Writer, useColor bool, explorer string) *ContractRenderer {
	return &ContractRenderer{
		out:      out,
		color:    useColor,
		explorer: explorer,
	}
}

// Render renders the record, or the suggestion list after a failed lookup
func (r *ContractRenderer) Render(result *usecase.ShowContractResult) error {
	if result.Contract == nil {
		return r.renderSuggestions(result.Suggestions)
	}

	record := result.Contract
	bold := color.New(color.Bold)

	if r.color {
		fmt.Fprintf(r.out, "%s\n\n", bold.Sprint(record.ID()))
	} else {
		fmt.Fprintf(r.out, "%s\n\n", record.ID())
	}

	fmt.Fprintf(r.out, "  Network:   %s (chain %d)\n", record.Network, record.ChainID)
	fmt.Fprintf(r.out, "  Address:   %s\n", record.Address)
	if record.TxHash != "" {
		fmt.Fprintf(r.out, "  Tx:        %s\n", record.TxHash)
	}
	if len(record.Args) > 0 {
		fmt.Fprintf(r.out, "  Args:      %s\n", strings.Join(record.Args, ", "))
	}
	fmt.Fprintf(r.out, "  Deployed:  %s\n", record.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if r.explorer != "" {
		fmt.Fprintf(r.out, "  Explorer:  %s/address/%s\n", strings.TrimSuffix(r.explorer, "/"), record.Address)
	}

	return nil
}

func (r *ContractRenderer) renderSuggestions(suggestions []string) error {
	if len(suggestions) == 0 {
		return nil
	}

	fmt.Fprintln(r.out, "Did you mean:")
	for _, s := range suggestions {
		fmt.Fprintf(r.out, "  %s\n", s)
	}
	return nil
}

var _ Renderer[*usecase.ShowContractResult] = (*ContractRenderer)(nil)
