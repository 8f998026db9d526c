package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <form-id> [field-id=value...]",
	Short: "Submit a response to a form",
	Long: `Submit a response to a form. Each argument after the form id is a
field id and value joined by '='. Fields that are not given are omitted.`,
	GroupID: "forms",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		msg, err := formsClient.Submit(cmd.Context(), args[0], values)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]string{"message": msg})
		} else {
			fmt.Println(msg)
		}
		return nil
	},
}

// parseAssignments turns key=value arguments into a value map. A value may
// itself contain '='.
func parseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid field %q: expected field-id=value", a)
		}
		values[k] = v
	}
	return values, nil
}
