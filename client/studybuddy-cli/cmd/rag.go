package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/mindmap"
)

var (
	retrieveTopK int
	mindMapTree  bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file-path]",
	Short: "Upload a pdf, docx, txt or md file to the RAG service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := newClient().Upload(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the uploaded notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		answer, err := newClient().Query(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the note chunks that best match a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matches, err := newClient().Retrieve(cmd.Context(), args[0], retrieveTopK)
		if err != nil {
			return err
		}
		for _, m := range matches {
			text, _ := m.Metadata["text"].(string)
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %s\n%s\n\n", m.Score, m.ID, text)
		}
		return nil
	},
}

var mindMapCmd = &cobra.Command{
	Use:   "mindmap [topic]",
	Short: "Generate a mind map for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := newClient().MindMap(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if mindMapTree {
			nodes, err := mindmap.Decode(raw)
			if err != nil {
				return err
			}
			mindmap.RenderTree(cmd.OutOrStdout(), nodes)
			return nil
		}

		// Pretty print the JSON output
		var prettyJSON bytes.Buffer
		if err := json.Indent(&prettyJSON, raw, "", "  "); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), prettyJSON.String())
		return nil
	},
}

func init() {
	retrieveCmd.Flags().IntVar(&retrieveTopK, "top-k", 0, "number of chunks to return (server default when 0)")
	mindMapCmd.Flags().BoolVar(&mindMapTree, "tree", false, "print the mind map as an indented outline")

	rootCmd.AddCommand(uploadCmd, queryCmd, retrieveCmd, mindMapCmd)
}
