package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rdm/internal/apiclient"
	"rdm/internal/domain/models"
)

var lsCmd = &cobra.Command{
	Use:   "ls [folder-id]",
	Short: "List the folders and documents at a location (root by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := session.Reload(ctx); err != nil {
			return printErr(err)
		}

		var folderID *string
		if len(args) == 1 {
			folderID = parentArg(args[0])
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		for _, folder := range session.ChildrenOf(folderID) {
			fmt.Fprintf(w, "%s\t%s/\t%d files\n", folder.ID, folder.Name, folder.FileCount)
		}

		docs, err := client.ListDocuments(ctx, folderID)
		if err != nil {
			return printErr(err)
		}
		for _, doc := range docs {
			fmt.Fprintf(w, "%s\t%s\tv%d\t%d bytes\n", doc.ID, doc.Name, doc.Version, doc.FileSize)
		}
		return nil
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the whole folder tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.Reload(cmd.Context()); err != nil {
			return printErr(err)
		}
		printSubtree(cmd.OutOrStdout(), nil, 0)
		return nil
	},
}

func printSubtree(w io.Writer, parentID *string, depth int) {
	for _, folder := range session.ChildrenOf(parentID) {
		fmt.Fprintf(w, "%s%s  (%s)\n", strings.Repeat("  ", depth), folder.Name, folder.ID)
		id := folder.ID
		printSubtree(w, &id, depth+1)
	}
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <name> [parent-id]",
	Short: "Create a folder; colliding names get a numeric suffix",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var parentID *string
		if len(args) == 2 {
			parentID = parentArg(args[1])
		}

		folder, err := client.CreateFolder(ctx, args[0], parentID)
		if err != nil {
			return printErr(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s  (%s)\n", folder.Name, folder.ID)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <folder|document> <id> <new-name>",
	Short: "Rename a folder or document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		itemType, err := models.ParseItemType(args[0])
		if err != nil {
			return printErr(err)
		}

		switch itemType {
		case models.ItemTypeFolder:
			folder, err := client.RenameFolder(ctx, args[1], args[2])
			if err != nil {
				return printErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed to %s\n", folder.Name)
		case models.ItemTypeDocument:
			doc, err := client.RenameDocument(ctx, args[1], args[2])
			if err != nil {
				return printErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed to %s\n", doc.Name)
		}
		return nil
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <folder|document> <id> [destination-folder-id]",
	Short: "Move an item into another folder, or to the root when omitted",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		itemType, err := models.ParseItemType(args[0])
		if err != nil {
			return printErr(err)
		}

		var dest *string
		if len(args) == 3 {
			dest = parentArg(args[2])
		}

		switch itemType {
		case models.ItemTypeFolder:
			if _, err := client.MoveFolder(ctx, args[1], dest); err != nil {
				return printErr(err)
			}
		case models.ItemTypeDocument:
			if _, err := client.MoveDocument(ctx, args[1], dest); err != nil {
				return printErr(err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "moved")
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file> [folder-id]",
	Short: "Upload a file; re-uploading the same name bumps its version",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := os.Open(args[0])
		if err != nil {
			return printErr(err)
		}
		defer f.Close()

		var folderID *string
		if len(args) == 2 {
			folderID = parentArg(args[1])
		}

		doc, err := client.UploadDocument(ctx, filepath.Base(args[0]), folderID, f)
		if err != nil {
			return printErr(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s  v%d  (%s)\n", doc.Name, doc.Version, doc.ID)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <document-id> [output-file]",
	Short: "Download a document to a file or stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		content, err := client.DownloadDocument(ctx, args[0])
		if err != nil {
			return printErr(err)
		}
		defer content.Close()

		out := cmd.OutOrStdout()
		if len(args) == 2 {
			f, err := os.Create(args[1])
			if err != nil {
				return printErr(err)
			}
			defer f.Close()
			out = f
		}

		if _, err := io.Copy(out, content); err != nil {
			return printErr(err)
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <folder|document>:<id> [...]",
	Short: "Move items to the trash; failures are reported per item",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items := make([]apiclient.BatchItem, 0, len(args))
		for _, arg := range args {
			typeStr, id, ok := strings.Cut(arg, ":")
			if !ok {
				return printErr(fmt.Errorf("expected type:id, got %q", arg))
			}
			itemType, err := models.ParseItemType(typeStr)
			if err != nil {
				return printErr(err)
			}
			items = append(items, apiclient.BatchItem{Type: itemType, ID: id})
		}

		results, err := client.TrashMany(cmd.Context(), items)
		if err != nil {
			return printErr(err)
		}

		failed := 0
		for _, res := range results {
			if res.OK() {
				fmt.Fprintf(cmd.OutOrStdout(), "trashed %s\n", res.ID)
			} else {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %s\n", res.ID, res.Error)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d items failed", failed, len(results))
		}
		return nil
	},
}

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Inspect and act on the trash",
}

var trashLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List trashed items, most recently trashed first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := client.ListTrash(cmd.Context())
		if err != nil {
			return printErr(err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Type, item.ID, item.Name, item.TrashedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var trashRestoreCmd = &cobra.Command{
	Use:   "restore <folder|document> <id>",
	Short: "Restore a trashed item; a vanished parent means it lands at the root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemType, err := models.ParseItemType(args[0])
		if err != nil {
			return printErr(err)
		}
		if err := client.RestoreItem(cmd.Context(), itemType, args[1]); err != nil {
			return printErr(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "restored")
		return nil
	},
}

var trashPurgeCmd = &cobra.Command{
	Use:   "purge <folder|document> <id>",
	Short: "Permanently delete a trashed item; this cannot be undone",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemType, err := models.ParseItemType(args[0])
		if err != nil {
			return printErr(err)
		}
		if err := client.PurgeItem(cmd.Context(), itemType, args[1]); err != nil {
			return printErr(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "purged")
		return nil
	},
}

func init() {
	trashCmd.AddCommand(trashLsCmd)
	trashCmd.AddCommand(trashRestoreCmd)
	trashCmd.AddCommand(trashPurgeCmd)
}
