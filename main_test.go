package resolver

import (
	"context"
	"log"
	"testing"

	"github.com/testcontainers/testcontainers-go"

	"github.com/siherrmann/resolver/helper"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initResolverWithDatabase(t *testing.T) *Resolver {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		t.Fatalf("failed to create database configuration: %v", err)
	}

	r, err := NewResolverWithDatabase(nil, dbConfig)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}

	t.Cleanup(func() {
		r.Close()
	})

	return r
}
