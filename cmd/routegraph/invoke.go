package main

import (
	"encoding/json"
	"fmt"

	language "github.com/hanpama/routegraph/internal/language"
	"github.com/hanpama/routegraph/internal/reqid"
	"github.com/hanpama/routegraph/internal/request"
	"github.com/spf13/cobra"
)

func newInvokeCmd(configPath *string) *cobra.Command {
	var argsJSON, contextJSON, rootJSON string
	cmd := &cobra.Command{
		Use:   "invoke <kind> <name>",
		Short: "Dispatch one route and print its result as JSON",
		Example: `  routegraph invoke query recipes --args '{"limit": 2}'
  routegraph invoke mutation addRecipe --args '{"input": {"title": "Pea Soup"}}' --context '{"user": "ada"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, argv []string) error {
			kind, ok := language.ParseOperation(argv[0])
			if !ok {
				return fmt.Errorf("unknown operation kind %q", argv[0])
			}
			name := argv[1]

			var args, values map[string]any
			var root any
			if err := decodeFlag("args", argsJSON, &args); err != nil {
				return err
			}
			if err := decodeFlag("context", contextJSON, &values); err != nil {
				return err
			}
			if err := decodeFlag("root", rootJSON, &root); err != nil {
				return err
			}

			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			fn, ok := a.ops.Resolver(kind, name)
			if !ok {
				return fmt.Errorf("no %s route %q", kind, name)
			}
			ctx, _ := reqid.NewContext(cmd.Context())
			ctx = request.WithValues(ctx, values)
			info := &request.Info{
				FieldName:  name,
				ParentType: language.RootTypeName(kind),
				Path:       language.Path{language.PathName(name)},
			}
			res, err := fn(ctx, root, args, info)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "operation arguments as a JSON object")
	cmd.Flags().StringVar(&contextJSON, "context", "", "request context values as a JSON object")
	cmd.Flags().StringVar(&rootJSON, "root", "", "root value as JSON, e.g. a subscription payload")
	return cmd
}

func decodeFlag(name, raw string, dst any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("--%s: %w", name, err)
	}
	return nil
}
