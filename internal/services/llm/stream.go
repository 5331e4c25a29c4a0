package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"teachback/internal/teachback"
)

const streamDone = "[DONE]"

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// StreamChat sends the conversation with stream=true and yields content
// deltas as they arrive. Streams are not retried.
func (c *Client) StreamChat(ctx context.Context, system string, history []teachback.Utterance, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if strings.TrimSpace(c.cfg.APIKey) == "" {
			yield("", errors.New("llm stream: api key required"))
			return
		}
		payload := chatCompletionRequest{
			Model:       c.cfg.Model,
			Messages:    systemMessages(system),
			Temperature: c.cfg.Temperature,
			Stream:      true,
		}
		for _, u := range history {
			payload.Messages = append(payload.Messages, chatMessage{Role: chatRole(u.Role), Content: u.Text})
		}
		payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: message})

		req, err := c.newChatRequest(ctx, payload)
		if err != nil {
			yield("", err)
			return
		}
		// The client-wide timeout would cut long streams; ctx bounds them instead.
		streamClient := *c.httpClient
		streamClient.Timeout = 0
		resp, err := streamClient.Do(req)
		if err != nil {
			yield("", fmt.Errorf("llm stream: http error: %w", err))
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusMultipleChoices {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			yield("", &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))})
			return
		}

		stopped := false
		err = readSSE(resp.Body, func(_ string, data string) error {
			if data == streamDone {
				return errStreamDone
			}
			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				return fmt.Errorf("llm stream: decode chunk: %w", err)
			}
			if chunk.Error != nil {
				return fmt.Errorf("llm stream: api error: %s", strings.TrimSpace(chunk.Error.Message))
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !yield(choice.Delta.Content, nil) {
					stopped = true
					return errStreamDone
				}
			}
			return nil
		})
		if stopped || errors.Is(err, errStreamDone) {
			return
		}
		if err != nil {
			yield("", err)
		}
	}
}

var errStreamDone = errors.New("stream done")

func chatRole(role teachback.Role) string {
	if role == teachback.RoleModel {
		return "assistant"
	}
	return "user"
}

// readSSE splits a server-sent event stream and hands each event's joined
// data lines to onEvent.
func readSSE(r io.Reader, onEvent func(event, data string) error) error {
	br := bufio.NewReader(r)
	var (
		eventName string
		dataLines []string
	)
	flush := func() error {
		if len(dataLines) == 0 {
			eventName = ""
			return nil
		}
		data := strings.Join(dataLines, "\n")
		ev := eventName
		dataLines = nil
		eventName = ""
		return onEvent(ev, data)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if line = strings.TrimRight(line, "\r\n"); strings.HasPrefix(line, "data:") {
					dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
				}
				return flush()
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// OpenRouter sends ": OPENROUTER PROCESSING" keep-alives.
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
}
