package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"prosocial/zen-core/internal/db"
)

func main() {
	label := flag.String("label", "", "optional label for the new key")
	flag.Parse()

	conn, err := sql.Open("postgres", db.Dsn())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	key := uuid.NewString()

	var id string
	err = conn.QueryRow(
		`INSERT INTO api_keys (id, key, label, status) VALUES (gen_random_uuid(), $1, NULLIF($2, ''), true) RETURNING id`,
		key, *label,
	).Scan(&id)
	if err != nil {
		log.Fatalf("insert api key: %v", err)
	}

	fmt.Println("New API Key:", key)
}
