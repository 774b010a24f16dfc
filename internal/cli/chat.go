package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/neoclaw-ai/umlsmith/internal/diagram"
	"github.com/neoclaw-ai/umlsmith/internal/provider"
	"github.com/neoclaw-ai/umlsmith/internal/store"
	"github.com/spf13/cobra"
)

// defaultAssistantReply stands in for an assistant turn that carried only markup.
const defaultAssistantReply = "Diagram updated."

func newChatCmd(opts *rootOptions) *cobra.Command {
	var diagramPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Refine a diagram interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts.configPath)
			if err != nil {
				return err
			}

			session := newChatSession(a.diagrams)
			if diagramPath != "" {
				markup, err := store.ReadMarkup(diagramPath)
				if err != nil {
					return fmt.Errorf("read diagram: %w", err)
				}
				session.current = markup
			}

			return runChatREPL(cmd.Context(), a, session, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&diagramPath, "diagram", "", "Start from the PlantUML markup in this file")

	return cmd
}

// chatSession holds the conversation and the current diagram across turns.
type chatSession struct {
	diagrams *diagram.Service
	history  []provider.ChatMessage
	current  string
}

// chatTurn is the outcome of one user message.
type chatTurn struct {
	Message string
	// Diff is set when the reply replaced the current diagram.
	Diff    string
	Updated bool
}

func newChatSession(diagrams *diagram.Service) *chatSession {
	return &chatSession{diagrams: diagrams}
}

// Send refines the current diagram. History and diagram are left
// untouched when the call fails.
func (s *chatSession) Send(ctx context.Context, text string) (*chatTurn, error) {
	user := provider.ChatMessage{Role: provider.RoleUser, Content: text}
	messages := append(append([]provider.ChatMessage{}, s.history...), user)

	res, err := s.diagrams.Refine(ctx, diagram.RefineRequest{
		Messages:       messages,
		CurrentDiagram: s.current,
	})
	if err != nil {
		return nil, err
	}

	reply := res.Message
	if strings.TrimSpace(reply) == "" {
		reply = defaultAssistantReply
	}
	s.history = append(messages, provider.ChatMessage{Role: provider.RoleAssistant, Content: reply})

	turn := &chatTurn{Message: reply}
	if res.Markup != nil {
		turn.Diff = lineDiff(s.current, *res.Markup)
		turn.Updated = true
		s.current = *res.Markup
	}
	return turn, nil
}

// Current returns the latest diagram markup, or "".
func (s *chatSession) Current() string {
	return s.current
}

// Reset clears the conversation and the diagram.
func (s *chatSession) Reset() {
	s.history = nil
	s.current = ""
}
