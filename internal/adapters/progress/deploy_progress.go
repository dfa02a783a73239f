package progress

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// DeployProgress renders deploy-stack progress events as step lines, with a
// spinner while a transaction is pending.
type DeployProgress struct {
	out     io.Writer
	spinner *SpinnerSink
}

// NewDeployProgress creates a new deploy progress reporter
func NewDeployProgress(out io.Writer) *DeployProgress {
	return &DeployProgress{
		out:     out,
		spinner: NewSpinnerSink(),
	}
}

// OnProgress handles progress events for stack deployments
func (p *DeployProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	switch event.Stage {
	case usecase.StagePlanCreated:
		fmt.Fprintf(p.out, "%s\n\n", color.New(color.Bold).Sprint(event.Message))

	case usecase.StageResumed:
		fmt.Fprintf(p.out, "%s\n", color.YellowString(event.Message))

	case usecase.StageStepSkipped, usecase.StageWiringSkipped:
		p.spinner.Stop()
		fmt.Fprintf(p.out, "[%d/%d] %s %s\n",
			event.Current, event.Total,
			color.New(color.FgWhite, color.Faint).Sprint("⊘"), event.Message)

	case usecase.StageStepCompleted, usecase.StageWiringDone, usecase.StageKeysDone:
		p.spinner.Stop()
		fmt.Fprintf(p.out, "[%d/%d] %s %s\n",
			event.Current, event.Total,
			color.GreenString("✓"), event.Message)

	case usecase.StageCompleted:
		p.spinner.Stop()
		fmt.Fprintf(p.out, "\n%s\n", color.GreenString(event.Message))

	default:
		p.spinner.OnProgress(ctx, event)
	}
}

// Info forwards info messages to the spinner
func (p *DeployProgress) Info(message string) {
	p.spinner.Info(message)
}

// Error forwards error messages to the spinner
func (p *DeployProgress) Error(message string) {
	p.spinner.Error(message)
}

// Ensure DeployProgress implements ProgressSink
var _ usecase.ProgressSink = (*DeployProgress)(nil)
