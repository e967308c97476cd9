package bootstrap

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"

	"socialdash-initdb/internal/db"
	"socialdash-initdb/internal/descriptor"
	"socialdash-initdb/internal/migrations"
	"socialdash-initdb/internal/seed"
)

// OpenFunc opens a database handle for a connection URL.
type OpenFunc func(ctx context.Context, dsn string) (*sqlx.DB, error)

// SchemaInitializer resolves the connection descriptor and applies the
// schema and seed migrations that the ledger does not record yet.
type SchemaInitializer struct {
	DescriptorPath string
	ClientToken    string
	Open           OpenFunc
}

// Migrations returns the schema DDL followed by the seed data.
func Migrations() ([]migrations.Migration, error) {
	migs, err := migrations.Schema()
	if err != nil {
		return nil, err
	}
	seedMig, err := seed.Migration()
	if err != nil {
		return nil, err
	}
	return append(migs, seedMig), nil
}

// Connect reads the descriptor and opens the database it names.
func (s SchemaInitializer) Connect(ctx context.Context) (*sqlx.DB, error) {
	desc, err := descriptor.Load(s.DescriptorPath, s.ClientToken)
	if err != nil {
		return nil, errConfig(err)
	}
	open := s.Open
	if open == nil {
		open = db.Open
	}
	conn, err := open(ctx, desc.URL)
	if err != nil {
		return nil, errDatabase(err)
	}
	return conn, nil
}

func (s SchemaInitializer) Initialize(ctx context.Context) error {
	conn, err := s.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	migs, err := Migrations()
	if err != nil {
		return errStatement(err)
	}
	applied, err := migrations.Apply(ctx, conn, migs)
	if err != nil {
		return errStatement(err)
	}
	log.Printf("initializer: %d of %d migrations applied", applied, len(migs))
	return nil
}
