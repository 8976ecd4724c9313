package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kuravih/shmio/pkg/shmio"
)

func newKeywordCommand(ns func() shmio.Namespace, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyword",
		Short: "Read or write keyword values on a live segment.",
	}
	cmd.AddCommand(newKeywordGetCommand(ns, stdout))
	cmd.AddCommand(newKeywordSetCommand(ns, stdout))
	return cmd
}

func newKeywordGetCommand(ns func() shmio.Namespace, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name> [keyword]",
		Short: "Print one keyword, or the whole table.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := shmio.Attach(args[0], &shmio.Options{Namespace: ns()})
			if err != nil {
				return err
			}
			defer ch.Release()
			if len(args) == 2 {
				kw, ok := ch.FindKeyword(args[1])
				if !ok {
					return errors.Errorf("segment %q has no keyword %q", args[0], args[1])
				}
				fmt.Fprintln(stdout, kw.ValueString())
				return nil
			}
			for _, kw := range ch.Keywords() {
				fmt.Fprintf(stdout, "%-16s %-8s %-20s %s\n", kw.Name, kw.Kind, kw.ValueString(), kw.Comment)
			}
			return nil
		},
	}
}

func newKeywordSetCommand(ns func() shmio.Namespace, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <keyword> <value>",
		Short: "Write one keyword value, keeping its stored type.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, key, value := args[0], args[1], args[2]
			ch, err := shmio.Attach(name, &shmio.Options{Namespace: ns()})
			if err != nil {
				return err
			}
			defer ch.Release()

			kw, ok := ch.FindKeyword(key)
			if !ok {
				return errors.Errorf("segment %q has no keyword %q", name, key)
			}
			switch kw.Kind {
			case shmio.KindInt64:
				v, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return errors.Wrapf(err, "keyword %q is int64", key)
				}
				err = ch.SetKeywordInt64(key, v)
				if err != nil {
					return err
				}
			case shmio.KindFloat64:
				v, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return errors.Wrapf(err, "keyword %q is float64", key)
				}
				err = ch.SetKeywordFloat64(key, v)
				if err != nil {
					return err
				}
			case shmio.KindString:
				if err := ch.SetKeywordString(key, value); err != nil {
					return err
				}
			}
			kw, _ = ch.FindKeyword(key)
			fmt.Fprintf(stdout, "%s = %s\n", kw.Name, kw.ValueString())
			return nil
		},
	}
}
