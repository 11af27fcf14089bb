// Command scannet exercises the scanning-MLP layers from the command line.
//
// To run a forward/backward round trip on random input:
// `go run ./cmd/scannet scan --batch=2 --width=128`
//
// To load pretrained weights first:
// `go run ./cmd/scannet scan --weights=weights.npz`
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"
	"gonum.org/v1/gonum/floats"

	"github.com/scannet-ml/scannet/models"
	"github.com/scannet-ml/scannet/tensor"
	"github.com/scannet-ml/scannet/weights"
)

const version = "v0.1.0"

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&VersionCommand{}, "")
	subcommands.Register(&ScanCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// VersionCommand prints the library version.
type VersionCommand struct{}

var _ subcommands.Command = (*VersionCommand)(nil)

func (*VersionCommand) Name() string             { return "version" }
func (*VersionCommand) Synopsis() string         { return "Show version" }
func (*VersionCommand) Usage() string            { return `` }
func (*VersionCommand) SetFlags(f *flag.FlagSet) {}

func (*VersionCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Printf("scannet %s\n", version)
	return subcommands.ExitSuccess
}

// ScanCommand runs one forward/backward round trip through a scanning MLP.
type ScanCommand struct {
	batch       int
	width       int
	weightsFile string
	distributed bool
}

var _ subcommands.Command = (*ScanCommand)(nil)

func (*ScanCommand) Name() string { return "scan" }

func (*ScanCommand) Synopsis() string {
	return "Run a forward/backward round trip through a scanning MLP"
}

func (*ScanCommand) Usage() string { return `` }

func (c *ScanCommand) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.batch, "batch", 1, "Batch size")
	f.IntVar(&c.width, "width", 128, "Input width (must cover the first stage's kernel of 8)")
	f.StringVar(&c.weightsFile, "weights", "", "Optional npz archive with members w1, w2, w3")
	f.BoolVar(&c.distributed, "distributed", false, "Use the distributed scanning variant")
}

func (c *ScanCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.batch <= 0 || c.width < 8 {
		log.Printf("invalid input size: batch=%d width=%d", c.batch, c.width)
		return subcommands.ExitUsageError
	}

	var mlp *models.SimpleScanningMLP
	if c.distributed {
		mlp = models.NewDistributedScanningMLP().SimpleScanningMLP
	} else {
		mlp = models.NewSimpleScanningMLP()
	}

	if c.weightsFile != "" {
		ws, err := weights.LoadNPZ(c.weightsFile)
		if err != nil {
			log.Printf("loading weights: %v", err)
			return subcommands.ExitFailure
		}
		// numpy savez appends .npy to member names.
		member := func(name string) (*tensor.Tensor, bool) {
			if t, ok := ws[name+".npy"]; ok {
				return t, true
			}
			t, ok := ws[name]
			return t, ok
		}
		w1, ok1 := member("w1")
		w2, ok2 := member("w2")
		w3, ok3 := member("w3")
		if !ok1 || !ok2 || !ok3 {
			log.Printf("weight archive %s must contain members w1, w2, w3", c.weightsFile)
			return subcommands.ExitFailure
		}
		mlp.InitWeights(w1, w2, w3)
	}

	input := tensor.Randn(tensor.Shape{c.batch, 24, c.width})
	output := mlp.Forward(input)
	inputGrad := mlp.Backward(tensor.Ones(output.Shape()))

	fmt.Printf("input:  %v\n", input.Shape())
	fmt.Printf("output: %v\n", output.Shape())
	fmt.Printf("dLdA:   %v (L2 norm %.6f)\n", inputGrad.Shape(), floats.Norm(inputGrad.Data(), 2))
	for _, p := range mlp.Parameters() {
		if p.Grad() != nil {
			fmt.Printf("%-14s %v (grad L2 norm %.6f)\n", p.Name(), p.Tensor().Shape(), floats.Norm(p.Grad().Data(), 2))
		}
	}
	return subcommands.ExitSuccess
}
