package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/wassi-real/lidforms/internal/model"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printFormSchema(fs *model.FormSchema) {
	fmt.Printf("ID:         %s\n", fs.Form.ID)
	fmt.Printf("Title:      %s\n", fs.Form.Title)
	fmt.Printf("Active:     %t\n", fs.Form.IsActive)
	if !fs.Form.CreatedAt.IsZero() {
		fmt.Printf("Created At: %s\n", fs.Form.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if len(fs.Fields) == 0 {
		fmt.Println("\nNo fields.")
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tID\tLABEL\tREQUIRED")
	for _, f := range fs.Fields {
		req := ""
		if f.Required {
			req = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.Position, f.ID, f.Label, req)
	}
	w.Flush()
}

func printFormSummaries(forms []*model.FormSummary) {
	if len(forms) == 0 {
		fmt.Println("No forms.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTIVE\tSUBMISSIONS\tTITLE\tCREATED")
	for _, f := range forms {
		fmt.Fprintf(w, "%s\t%t\t%d\t%s\t%s\n",
			f.ID, f.IsActive, f.Submissions, f.Title, f.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
}
