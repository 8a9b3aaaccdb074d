package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// printYAML writes v as a yaml document.
func printYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	err := encoder.Encode(v)
	if err != nil {
		return err
	}
	return encoder.Close()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	return table
}

// render prints v as yaml or hands the writer to the table printer.
func (a *app) render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	if a.output == outputYAML {
		return printYAML(cmd.OutOrStdout(), v)
	}
	table(cmd.OutOrStdout())
	return nil
}

func printWorkspaces(w io.Writer, workspaces []models.Workspace) {
	table := newTable(w, "ID", "Name", "Parent")
	for _, workspace := range workspaces {
		parent := ""
		if workspace.ParentID != nil {
			parent = *workspace.ParentID
		}
		table.Append([]string{workspace.ID, workspace.Name, parent})
	}
	table.Render()
}

// printTree draws the hierarchy with box drawing characters.
func printTree(w io.Writer, nodes []*models.WorkspaceNode, prefix string) {
	for i, node := range nodes {
		branch, indent := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, indent = "└── ", "    "
		}
		fmt.Fprintf(w, "%s%s%s (%s)\n", prefix, branch, node.Name, node.ID)
		printTree(w, node.Children, prefix+indent)
	}
}

func printNotePreviews(w io.Writer, notes []models.NotePreview) {
	table := newTable(w, "ID", "Title")
	for _, note := range notes {
		table.Append([]string{note.ID, strings.ReplaceAll(note.Title, "\n", " ")})
	}
	table.Render()
}

func printUser(w io.Writer, user models.User) {
	table := newTable(w, "Field", "Value")
	username := ""
	if user.Username != nil {
		username = *user.Username
	}
	table.Append([]string{"ID", fmt.Sprintf("%d", user.ID)})
	table.Append([]string{"Email", user.Email})
	table.Append([]string{"Username", username})
	table.Append([]string{"Sign in", string(user.TypeAuth)})
	table.Append([]string{"Created", user.CreatedAt})
	table.Render()
}

// stdin is shared by the prompts so that buffered input is not lost between them.
func (a *app) stdin(cmd *cobra.Command) *bufio.Reader {
	if a.reader == nil {
		a.reader = bufio.NewReader(cmd.InOrStdin())
	}
	return a.reader
}

// promptForInput prompts the user for input and returns the trimmed string.
func (a *app) promptForInput(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)
	input, err := a.stdin(cmd).ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// promptForPassword reads the password without echo when stdin is a terminal.
func (a *app) promptForPassword(cmd *cobra.Command, prompt string) (string, error) {
	if file, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		cmd.Print(prompt)
		password, err := term.ReadPassword(int(file.Fd()))
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read the password: %w", err)
		}
		return strings.TrimSpace(string(password)), nil
	}
	return a.promptForInput(cmd, prompt)
}
