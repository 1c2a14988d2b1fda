package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/fsclient"
)

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <path>",
		Short: "Read a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			content, err := client.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printf("%s", content)
			return nil
		},
	}
}

func newWriteCmd(a *app) *cobra.Command {
	var content string

	cmd := &cobra.Command{
		Use:   "write <path>",
		Short: "Write to a file",
		Long: `Write content to a file, creating missing parent directories.

Without --content the content is read from stdin. Stdin is then exhausted,
so an interactive confirmation cannot be answered: combine with -y or
--approval allow.

Examples:
  tinyfs write notes.md -c "# Notes"
  echo hello | tinyfs -y write greeting.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("content") {
				data, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = string(data)
			}
			if err := client.Write(cmd.Context(), args[0], content, true); err != nil {
				return err
			}
			a.printf("Successfully wrote to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&content, "content", "c", "", "Content to write (default: read stdin)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List directory contents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			client, err := a.open()
			if err != nil {
				return err
			}
			entries, err := client.ListDirectory(cmd.Context(), path)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(entries)
			}
			a.printf("Contents of %s:\n", path)
			return a.printEntries(entries)
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output in JSON format")
	return cmd
}

func newMkdirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory and any missing parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			if err := client.CreateDirectory(cmd.Context(), args[0], true); err != nil {
				return err
			}
			a.printf("Successfully created directory %s\n", args[0])
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a file, symlink or empty directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), args[0], true); err != nil {
				return err
			}
			a.printf("Successfully deleted %s\n", args[0])
			return nil
		},
	}
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <source> <destination>",
		Short: "Move a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			if err := client.Move(cmd.Context(), args[0], args[1], true); err != nil {
				return err
			}
			a.printf("Successfully moved %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <source> <destination>",
		Short: "Copy a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			if err := client.Copy(cmd.Context(), args[0], args[1], true); err != nil {
				return err
			}
			a.printf("Successfully copied %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newExistsCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "exists <path>",
		Short: "Check if a file or directory exists",
		Long: `Check if a path exists. Exits 0 when it does and 1 when it does not.

Examples:
  tinyfs exists notes.md
  tinyfs exists src --type directory`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var exists bool
			entity := "path"
			switch kind {
			case "":
				exists, err = client.Exists(ctx, args[0])
			case "file":
				entity = "file"
				exists, err = client.IsFile(ctx, args[0])
			case "directory":
				entity = "directory"
				exists, err = client.IsDirectory(ctx, args[0])
			default:
				return fmt.Errorf("invalid --type %q (want file or directory)", kind)
			}
			if err != nil {
				return err
			}

			if !exists {
				a.printf("The %s %s does not exist.\n", entity, args[0])
				return &resultError{code: exitError}
			}
			a.printf("The %s %s exists.\n", entity, args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "", "Type of path to check for: file or directory")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <path>",
		Short: "Get information about a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			info, err := client.GetInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if info == nil {
				a.printf("No information available for %s\n", args[0])
				return &resultError{code: exitError}
			}
			if asJSON {
				return a.printJSON(info)
			}

			a.printf("Information for %s:\n", args[0])
			a.printf("  Name: %s\n", info.Name)
			kind := "File"
			if info.IsDir {
				kind = "Directory"
			}
			a.printf("  Type: %s\n", kind)
			if !info.IsDir {
				a.printf("  Size: %d bytes\n", info.Size)
			}
			a.printf("  Mode: %s\n", info.Mode)
			a.printf("  Modified: %s\n", info.Modified.Format("2006-01-02 15:04:05"))
			if info.MIMEType != "" {
				a.printf("  MIME: %s\n", info.MIMEType)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output in JSON format")
	return cmd
}

func newFindCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "find <pattern> [dir]",
		Short: "Find files matching a glob pattern",
		Long: `Find entries below dir (default: the workspace root) whose path relative
to dir matches pattern. "**" matches any number of directories. Symlinks
are not followed.

Examples:
  tinyfs find "**/*.go"
  tinyfs find "*.md" docs`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 2 {
				dir = args[1]
			}
			client, err := a.open()
			if err != nil {
				return err
			}
			matches, err := client.Find(cmd.Context(), dir, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(matches)
			}
			for _, m := range matches {
				suffix := ""
				if m.IsDir {
					suffix = "/"
				}
				a.printf("%s%s\n", m.RelPath, suffix)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output in JSON format")
	return cmd
}

func (a *app) printJSON(v interface{}) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	a.printf("%s\n", data)
	return nil
}

// printEntries prints directories first, then files, each sorted by name
func (a *app) printEntries(entries []fsclient.FileInfo) error {
	sorted := append([]fsclient.FileInfo(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsDir != sorted[j].IsDir {
			return sorted[i].IsDir
		}
		return sorted[i].Name < sorted[j].Name
	})

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	for _, e := range sorted {
		switch {
		case e.IsDir:
			fmt.Fprintf(w, "  %s/\t\t%s\n", e.Name, e.Mode)
		case e.IsSymlink:
			fmt.Fprintf(w, "  %s@\t\t%s\n", e.Name, e.Mode)
		default:
			fmt.Fprintf(w, "  %s\t%d bytes\t%s\n", e.Name, e.Size, e.Mode)
		}
	}
	return w.Flush()
}
