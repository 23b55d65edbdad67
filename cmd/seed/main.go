// seed is a one-shot tool to load demo catalog and customer data into an
// empty database. Safe to re-run: rows are matched by name and upserted.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"

	"distripanel/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding suppliers...")
	_, err = tx.Exec(ctx, `
		INSERT INTO suppliers (name, phone)
		SELECT v.name, v.phone
		FROM (VALUES
		    ('Molinos del Sur',   '11-4555-0101'),
		    ('Frigorifico Norte', '11-4555-0102'),
		    ('Granja La Tranquera', '11-4555-0103')
		) AS v(name, phone)
		WHERE NOT EXISTS (SELECT 1 FROM suppliers s WHERE s.name = v.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed suppliers: %v", err)
	}

	log.Println("Seeding categories...")
	_, err = tx.Exec(ctx, `
		INSERT INTO categories (name)
		SELECT v.name
		FROM (VALUES ('Dry goods'), ('Cold chain'), ('Cleaning')) AS v(name)
		WHERE NOT EXISTS (SELECT 1 FROM categories c WHERE c.name = v.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	log.Println("Seeding articles...")
	_, err = tx.Exec(ctx, `
		INSERT INTO articles (name, unit, allows_decimal, cost, price, supplier_id, category_id)
		SELECT v.name, v.unit, v.allows_decimal, v.cost, v.price,
		       (SELECT id FROM suppliers WHERE name = v.supplier),
		       (SELECT id FROM categories WHERE name = v.category)
		FROM (VALUES
		    ('Flour 000 1kg',      'unit', FALSE, 450.00,  680.00, 'Molinos del Sur',     'Dry goods'),
		    ('Rice long grain 1kg','unit', FALSE, 520.00,  790.00, 'Molinos del Sur',     'Dry goods'),
		    ('Ground beef',        'kg',   TRUE, 3800.00, 5500.00, 'Frigorifico Norte',   'Cold chain'),
		    ('Whole chicken',      'kg',   TRUE, 2100.00, 3200.00, 'Granja La Tranquera', 'Cold chain'),
		    ('Eggs x30',           'unit', FALSE, 2900.00, 4100.00, 'Granja La Tranquera', 'Cold chain'),
		    ('Bleach 1L',          'unit', FALSE,  600.00,  950.00, NULL,                  'Cleaning')
		) AS v(name, unit, allows_decimal, cost, price, supplier, category)
		WHERE NOT EXISTS (SELECT 1 FROM articles a WHERE a.name = v.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed articles: %v", err)
	}

	log.Println("Seeding customers...")
	_, err = tx.Exec(ctx, `
		INSERT INTO customers (name, address, locality, phone)
		SELECT v.name, v.address, v.locality, v.phone
		FROM (VALUES
		    ('Almacen Dona Rosa', 'Av. Mitre 1420',   'Avellaneda', '11-4666-0201'),
		    ('Kiosco El Paso',    'Belgrano 355',     'Quilmes',    '11-4666-0202'),
		    ('Despensa Lucia',    'Calle 12 n. 880',  'Berazategui','11-4666-0203')
		) AS v(name, address, locality, phone)
		WHERE NOT EXISTS (SELECT 1 FROM customers c WHERE c.name = v.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed customers: %v", err)
	}

	log.Println("Seeding packs...")
	_, err = tx.Exec(ctx, `
		INSERT INTO packs (name, description, category_id)
		SELECT v.name, v.description,
		       (SELECT id FROM categories WHERE name = v.category)
		FROM (VALUES
		    ('Weekly basics', 'Common weekly reorder for small shops', 'Dry goods')
		) AS v(name, description, category)
		WHERE NOT EXISTS (SELECT 1 FROM packs p WHERE p.name = v.name);

		INSERT INTO pack_items (pack_id, article_id, suggested_qty, position)
		SELECT p.id, a.id, v.qty, v.pos
		FROM packs p
		JOIN (VALUES
		    ('Flour 000 1kg',       10, 1),
		    ('Rice long grain 1kg', 10, 2),
		    ('Eggs x30',             2, 3)
		) AS v(article, qty, pos) ON p.name = 'Weekly basics'
		JOIN articles a ON a.name = v.article
		WHERE NOT EXISTS (
		    SELECT 1 FROM pack_items pi WHERE pi.pack_id = p.id AND pi.article_id = a.id
		);
	`)
	if err != nil {
		log.Fatalf("Failed to seed packs: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data loaded.")
}
