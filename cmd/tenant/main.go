package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/db"
	"github.com/escalamedica/plantao/internal/master"
	"github.com/escalamedica/plantao/internal/tenant"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	tenantService := tenant.NewService(tenant.NewRepository(pool))
	auditService := auditoria.NewService(auditoria.NewRepository(pool), log.With().Str("component", "auditoria").Logger())
	masterService := master.NewService(master.NewRepository(pool), auditService)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "create":
		if err := runCreate(ctx, tenantService, masterService, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar tenant")
		}
	case "list":
		if err := runList(ctx, tenantService); err != nil {
			log.Fatal().Err(err).Msg("falha ao listar tenants")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "tenant CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  tenant create --slug clinica --nome \"Clínica Central\" [--master-nome \"Admin\" --master-email admin@clinica.com --master-senha segredo]")
	fmt.Fprintln(os.Stderr, "  tenant list")
}

func runCreate(ctx context.Context, tenants *tenant.Service, masters *master.Service, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		slug        = fs.String("slug", "", "slug do tenant (ex.: clinica-central)")
		nome        = fs.String("nome", "", "nome exibido")
		masterNome  = fs.String("master-nome", "", "nome do primeiro administrador")
		masterEmail = fs.String("master-email", "", "e-mail do primeiro administrador")
		masterSenha = fs.String("master-senha", "", "senha do primeiro administrador")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *slug == "" || *nome == "" {
		return errors.New("slug e nome são obrigatórios")
	}

	criado, err := tenants.Create(ctx, tenant.CreateInput{
		Slug: *slug,
		Nome: *nome,
	})
	if err != nil {
		return err
	}

	if *masterEmail != "" {
		if *masterNome == "" || *masterSenha == "" {
			return errors.New("master-nome e master-senha são obrigatórios junto com master-email")
		}
		m, err := masters.Create(ctx, criado.ID, uuid.Nil, master.CreateInput{
			Nome:  *masterNome,
			Email: *masterEmail,
			Senha: *masterSenha,
		})
		if err != nil {
			return fmt.Errorf("criar master: %w", err)
		}
		log.Info().Str("email", m.Email).Msg("administrador inicial criado")
	}

	output, _ := json.MarshalIndent(criado, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runList(ctx context.Context, tenants *tenant.Service) error {
	lista, err := tenants.List(ctx)
	if err != nil {
		return err
	}

	if len(lista) == 0 {
		fmt.Println("nenhum tenant cadastrado")
		return nil
	}

	encoded, _ := json.MarshalIndent(lista, "", "  ")
	fmt.Println(string(encoded))
	return nil
}
