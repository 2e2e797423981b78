package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitalvas/signfetch/paramsign"
)

type signFlags struct {
	key       string
	algorithm string
	canonical bool
}

func (f *signFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.key, "key", "k", "", "Signing key (required)")
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", string(paramsign.AlgorithmMD5), "Signature algorithm (md5, hmac-sha256)")
	_ = cmd.MarkFlagRequired("key")
}

func (f *signFlags) signer() (paramsign.Signer, error) {
	return paramsign.NewSigner(paramsign.Algorithm(f.algorithm), f.key)
}

// errParamsNotObject is returned for parameter input that is not a JSON
// object.
var errParamsNotObject = errors.New("params must be a JSON object")

// parseParams decodes a JSON object read from args or stdin.
func parseParams(cmd *cobra.Command, args []string) (paramsign.Params, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, errParamsNotObject
	}

	params, err := paramsign.ParamsFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("invalid params JSON: %w", err)
	}

	return params, nil
}

func newSignCommand() *cobra.Command {
	flags := &signFlags{}

	cmd := &cobra.Command{
		Use:   "sign [params-json|-]",
		Short: "Compute the signature of a parameter set",
		Long: `Compute the signature of a JSON object of parameters.

Values whose JSON form is 64 characters or longer are not signed. Pass "-" or
no argument to read the object from stdin.`,
		Example: `  signfetch sign --key secret '{"a":1,"b":"x"}'
  echo '{"a":1}' | signfetch sign --key secret --canonical`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(cmd, args)
			if err != nil {
				return err
			}

			if flags.canonical {
				if paramsign.Algorithm(flags.algorithm) != paramsign.AlgorithmMD5 {
					return errors.New("--canonical is only supported for md5")
				}
				fmt.Fprintln(cmd.OutOrStdout(), paramsign.CanonicalString(params, flags.key))
				return nil
			}

			signer, err := flags.signer()
			if err != nil {
				return err
			}

			signature, err := signer.Sign(params)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), signature)

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.canonical, "canonical", false, "Print the canonical string instead of the signature")

	return cmd
}

func newVerifyCommand() *cobra.Command {
	flags := &signFlags{}
	var signature string

	cmd := &cobra.Command{
		Use:     "verify [params-json|-]",
		Short:   "Check a signature against a parameter set",
		Example: `  signfetch verify --key secret --signature 9758484A... '{"a":1,"b":"x"}'`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(cmd, args)
			if err != nil {
				return err
			}

			signer, err := flags.signer()
			if err != nil {
				return err
			}

			if err := paramsign.Verify(params, signature, signer); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "OK")

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&signature, "signature", "s", "", "Signature to check (required)")
	_ = cmd.MarkFlagRequired("signature")

	return cmd
}
