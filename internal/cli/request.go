package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitalvas/signfetch/fetch"
)

type requestFlags struct {
	params  []string
	headers []string
	data    string
	baseURL string
}

func newRequestCommand(opts *options) *cobra.Command {
	flags := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send a signed request and print the response body",
		Long: `Send a signed request using the configured base URL and credentials.

The response envelope is unwrapped: on success the body is printed, otherwise
the command fails with the envelope status and message.`,
		Example: `  signfetch request GET /users -p page=1 -p tag=a -p tag=b
  signfetch request POST /users -d '{"name":"ann"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if flags.baseURL != "" {
				cfg.BaseURL = flags.baseURL
			}

			req, err := flags.build(args[0], args[1])
			if err != nil {
				return err
			}

			clientOpts, err := cfg.ClientOptions(cmd.Context(), commandLogger(cmd, cfg))
			if err != nil {
				return err
			}

			client, err := fetch.New(clientOpts...)
			if err != nil {
				return err
			}

			body, err := client.Do(cmd.Context(), req)
			if err != nil {
				return err
			}

			return printJSON(cmd, body)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.params, "param", "p", nil, "Query parameter key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.headers, "header", "H", nil, "Request header 'Name: value' (repeatable)")
	cmd.Flags().StringVarP(&flags.data, "data", "d", "", "JSON request body")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Override the configured base URL")

	return cmd
}

// build converts the flags into a fetch.Request.
func (f *requestFlags) build(method, path string) (fetch.Request, error) {
	req := fetch.Request{
		Method: strings.ToUpper(method),
		URL:    path,
	}

	if len(f.params) > 0 {
		req.Params = make(map[string]any, len(f.params))

		for _, p := range f.params {
			key, value, ok := strings.Cut(p, "=")
			if !ok || key == "" {
				return fetch.Request{}, fmt.Errorf("invalid param %q, expected key=value", p)
			}

			switch existing := req.Params[key].(type) {
			case nil:
				req.Params[key] = value
			case []any:
				req.Params[key] = append(existing, value)
			default:
				req.Params[key] = []any{existing, value}
			}
		}
	}

	if len(f.headers) > 0 {
		req.Header = make(http.Header, len(f.headers))

		for _, h := range f.headers {
			name, value, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return fetch.Request{}, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
			}
			req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		}
	}

	if f.data != "" {
		if !json.Valid([]byte(f.data)) {
			return fetch.Request{}, errors.New("--data must be valid JSON")
		}
		req.Data = json.RawMessage(f.data)
	}

	return req, nil
}

// printJSON writes body indented, or "null" for an empty body.
func printJSON(cmd *cobra.Command, body json.RawMessage) error {
	if len(body) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "null")
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), buf.String())

	return nil
}
