// Gerador de carga: dispara vendas concorrentes contra os mesmos
// produtos e confere que o serviço nunca aceita mais estoque do que
// existe. Uso:
//
//	go run ./loadtest -url http://localhost:8080 -producto <id> -stock 10 -workers 50
package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

type saleRequest struct {
	TipoEntrega string     `json:"tipo_entrega"`
	Items       []saleItem `json:"items"`
}

type saleItem struct {
	ProductoID string `json:"producto_id"`
	Cantidad   int    `json:"cantidad"`
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func main() {
	url := flag.String("url", "http://localhost:8080", "base URL do serviço")
	productoID := flag.String("producto", "", "ID do produto disputado")
	stock := flag.Int("stock", 10, "estoque inicial do produto")
	workers := flag.Int("workers", 50, "vendas concorrentes (1 unidade cada)")
	flag.Parse()

	if *productoID == "" {
		log.Fatal("flag -producto é obrigatória")
	}

	client := resty.New().
		SetBaseURL(*url).
		SetTimeout(30 * time.Second)

	var created, rejected, failed int64
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var body envelope
			resp, err := client.R().
				SetBody(saleRequest{
					TipoEntrega: "pickup",
					Items:       []saleItem{{ProductoID: *productoID, Cantidad: 1}},
				}).
				SetResult(&body).
				SetError(&body).
				Post("/api/ventas")
			if err != nil {
				atomic.AddInt64(&failed, 1)
				return
			}

			switch resp.StatusCode() {
			case 201:
				atomic.AddInt64(&created, 1)
			case 409:
				atomic.AddInt64(&rejected, 1)
			default:
				log.Printf("unexpected status %d: %s", resp.StatusCode(), body.Error)
				atomic.AddInt64(&failed, 1)
			}
		}()
	}
	wg.Wait()

	fmt.Printf("⏱  %d workers in %s\n", *workers, time.Since(start))
	fmt.Printf("✅ created:  %d\n", created)
	fmt.Printf("❌ rejected: %d (insufficient stock / conflict)\n", rejected)
	fmt.Printf("💥 failed:   %d\n", failed)

	// Com estoque S e N vendas de 1 unidade, exatamente min(S, N) devem passar
	want := int64(*stock)
	if int64(*workers) < want {
		want = int64(*workers)
	}
	if created != want {
		log.Fatalf("oversell check FAILED: created %d, want %d", created, want)
	}
	fmt.Println("oversell check OK")
}
