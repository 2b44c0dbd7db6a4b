package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var syncFirst bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and print the JSON answer",
		Long: "Answer one question and print the compact JSON answer. Without arguments the\n" +
			"question is read from standard input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if strings.TrimSpace(question) == "" {
				q, err := readQuestion(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				question = q
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if syncFirst {
				if _, err := a.syncer.Run(ctx); err != nil {
					return err
				}
			}
			answer, err := a.chat.Ask(ctx, question)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer.Formatted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&syncFirst, "sync", false, "run the ETL sync before answering")
	return cmd
}

func readQuestion(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Prompt: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
