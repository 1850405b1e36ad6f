package commands

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay/cookie"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a random TEMPDATA_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return keygen(cmd.OutOrStdout(), nil)
		},
	}
}

func keygen(w io.Writer, entropy io.Reader) error {
	key, err := cookie.GenerateKey(entropy)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hex.EncodeToString(key[:]))
	return err
}
