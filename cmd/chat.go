package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/pkg/client"
	"github.com/janschaeferjohann/seriem-agent/tui/theme"
)

// NewChatCmd creates the `chat` command.
func NewChatCmd() *cobra.Command {
	var streamOutput bool

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message through the agent",
		Long: `Runs a single agent turn against the active workspace and prints the
response. File changes the agent wants to make show up as proposals; decide
them with 'seriem proposals' or 'seriem review'.

Examples:
  # Ask for a change
  seriem chat "add input validation to the upload handler"

  # Watch the reasoning and tool activity as it happens
  seriem chat --stream "summarize the data model"
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			if streamOutput {
				return streamChat(cmd, c, message)
			}

			response, err := c.Chat(cmd.Context(), message, nil)
			if err != nil {
				return err
			}

			fmt.Println(response)
			return nil
		},
	}

	cmd.Flags().BoolVar(&streamOutput, "stream", false, "Stream frames over the WebSocket instead of waiting for the final text")

	return cmd
}

// streamChat prints frames as they arrive: tool activity goes to its own
// styled lines, text chunks flow together, and the turn ends on the done or
// error frame.
func streamChat(cmd *cobra.Command, c *client.Client, message string) error {
	frames, err := c.StreamTurn(cmd.Context(), message, nil)
	if err != nil {
		return err
	}

	t := theme.DefaultTheme
	inText := false

	for frame := range frames {
		switch frame.Type {
		case "stream":
			if text, ok := frame.Content.(string); ok {
				fmt.Print(text)
				inText = true
			}

		case "tool_call":
			if inText {
				fmt.Println()
				inText = false
			}
			fmt.Printf("%s %s\n", t.Info.Render("tool"), frameField(frame.Content, "name"))

		case "tool_result":
			// Tool output feeds the agent, not the operator; only surface
			// which tool answered.
			if inText {
				fmt.Println()
				inText = false
			}
			fmt.Printf("%s %s\n", t.Muted.Render("done"), t.Muted.Render(frameField(frame.Content, "name")))

		case "done":
			if inText {
				fmt.Println()
			}
			return nil

		case "error":
			if inText {
				fmt.Println()
			}
			message, _ := frame.Content.(string)
			return errors.New(errors.ErrCodeTransport, message)
		}
	}

	return errors.New(errors.ErrCodeTransport, "stream ended before the turn concluded")
}

// frameField pulls a string field out of a decoded frame payload.
func frameField(content any, key string) string {
	payload, ok := content.(map[string]any)
	if !ok {
		return ""
	}
	value, _ := payload[key].(string)
	return value
}
