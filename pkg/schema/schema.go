// Package schema holds the Avro records exchanged through the broker and
// the schema registry serdes that frame them.
package schema

import (
	"context"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier returns the registry ID of the schema text
// under the subject, registering it when needed.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject, schemaText string) (int, error)
}

type schemaCreater struct {
	cl *sr.Client
}

func NewSchemaCreater(cl *sr.Client) SchemaIdentifier {
	return schemaCreater{cl}
}

func (sc schemaCreater) DetermineID(
	ctx context.Context, subject, schemaText string,
) (int, error) {
	ss, err := sc.cl.CreateSchema(
		ctx, subject, sr.Schema{Type: sr.TypeAvro, Schema: schemaText},
	)
	if err != nil {
		return 0, err
	}
	return ss.ID, nil
}

func AvroEncodeFn(s avro.Schema) func(v any) ([]byte, error) {
	return func(v any) ([]byte, error) {
		return avro.Marshal(s, v)
	}
}

func AvroDecodeFn(s avro.Schema) func([]byte, any) error {
	return func(data []byte, v any) error {
		return avro.Unmarshal(s, data, v)
	}
}
