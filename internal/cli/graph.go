package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanbest/internal/models"
	"github.com/gitrdm/gokanbest/pkg/fdsearch"
)

func newGraphCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "graph <model>",
		Short:     "Print the objective graph of a built-in model",
		Args:      cobra.ExactArgs(1),
		ValidArgs: models.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := models.Build(args[0])
			if err != nil {
				return err
			}
			return printGraph(cmd.OutOrStdout(), inst)
		},
	}
}

func printGraph(w io.Writer, inst *models.Instance) error {
	g, err := inst.Model.ObjectiveGraph()
	if err != nil {
		return err
	}
	m := inst.Model

	printTitle(w, "objective graph of %s", inst.Name)
	printKeyValue(w, "objective", fmt.Sprintf("%s %s", m.Policy(), m.Objective().Name()))
	printKeyValue(w, "examined", fmt.Sprintf("%d of %d propagators", g.Examined(), len(m.Propagators())))

	nodes := append([]fdsearch.GraphNode(nil), g.Nodes()...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Distance < nodes[j].Distance })
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		parents := ""
		for i, e := range n.Parents {
			if i > 0 {
				parents += ", "
			}
			parents += fmt.Sprintf("%s via %s", e.Near.Name(), e.Propagator.Constraint().Type())
		}
		rows = append(rows, []string{n.Var.Name(), strconv.Itoa(n.Distance), parents})
	}
	fmt.Fprintln(w, renderTable([]string{"variable", "distance", "parents"}, rows))

	for _, v := range m.Variables() {
		switch {
		case v.IsView():
			if proxy := g.MostRelevant(v); proxy != nil {
				printDetail(w, "view %s -> %s", v.Name(), proxy.Name())
			} else {
				printDetail(w, "view %s unreachable", v.Name())
			}
		case !v.IsConstant() && g.Node(v) == nil:
			printDetail(w, "%s unreachable", v.Name())
		}
	}
	return nil
}
