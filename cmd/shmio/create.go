package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kuravih/shmio/pkg/shmio"
)

func newCreateCommand(ns func() shmio.Namespace, stdout io.Writer) *cobra.Command {
	var schemaPath string
	var elements int
	var typeName string
	var keywordFlags []string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a segment, or attach when it already exists.",
		Long: `Create builds a segment from a YAML schema file or from flags. When the
segment already exists it attaches instead, which requires the existing
shape and keyword table to match.

Keyword flags take the form name:type:value[:comment], for example
  --keyword EXPT:float64:0.25:"exposure seconds"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &shmio.Options{Namespace: ns()}

			var name string
			var elementCount int
			var dt shmio.DataType
			var keywords []shmio.Keyword

			if schemaPath != "" {
				schema, err := shmio.LoadSchema(schemaPath)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					schema.Name = args[0]
				}
				name = schema.Name
				elementCount = schema.Elements
				if dt, err = schema.ElementType(); err != nil {
					return err
				}
				if keywords, err = schema.KeywordTable(); err != nil {
					return err
				}
			} else {
				if len(args) != 1 {
					return errors.New("a segment name is required unless --schema is given")
				}
				name = args[0]
				elementCount = elements
				var err error
				if dt, err = shmio.ParseDataType(typeName); err != nil {
					return err
				}
				for _, f := range keywordFlags {
					kw, err := parseKeywordFlag(f)
					if err != nil {
						return err
					}
					keywords = append(keywords, kw)
				}
			}

			existed := shmio.Exists(name, opts)
			ch, err := shmio.CreateOrAttach(name, elementCount, dt, keywords, opts)
			if err != nil {
				return err
			}
			defer ch.Release()

			verb := "created"
			if existed {
				verb = "attached"
			}
			fmt.Fprintf(stdout, "%s %s: %d keywords, %d x %s, %d bytes\n",
				verb, ch.Path(), ch.KeywordCount(), ch.ElementCount(), ch.DataType(), ch.Size())
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "YAML schema file describing the segment")
	cmd.Flags().IntVar(&elements, "elements", 0, "buffer length in elements")
	cmd.Flags().StringVar(&typeName, "type", "float32", "buffer element type")
	cmd.Flags().StringArrayVar(&keywordFlags, "keyword", nil, "keyword slot as name:type:value[:comment], repeatable")
	return cmd
}

// parseKeywordFlag turns name:type:value[:comment] into a Keyword.
func parseKeywordFlag(s string) (shmio.Keyword, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 {
		return shmio.Keyword{}, errors.Errorf("keyword %q: want name:type:value[:comment]", s)
	}
	name, typeName, value := parts[0], parts[1], parts[2]
	comment := ""
	if len(parts) == 4 {
		comment = parts[3]
	}
	switch typeName {
	case "int", "int64":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return shmio.Keyword{}, errors.Wrapf(err, "keyword %q", name)
		}
		return shmio.IntKeyword(name, v, comment), nil
	case "float", "float64":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return shmio.Keyword{}, errors.Wrapf(err, "keyword %q", name)
		}
		return shmio.FloatKeyword(name, v, comment), nil
	case "string", "str":
		return shmio.StringKeyword(name, value, comment), nil
	}
	return shmio.Keyword{}, errors.Errorf("keyword %q: unknown type %q", name, typeName)
}
