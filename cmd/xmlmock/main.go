package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// xmlmock serves the XML fixtures the sample suite points at, so a full
// run can be exercised locally without a real backend.
func main() {
	addr := flag.String("addr", ":8081", "listen address")
	flag.Parse()

	r := mux.NewRouter()

	r.HandleFunc("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<product id=%q><name>Widget %s</name><price currency="USD">19.99</price></product>`, id, id)
	}).Methods(http.MethodGet)

	r.HandleFunc("/orders", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `<order id="A-1"><status>accepted</status><echo>%s</echo></order>`, body)
	}).Methods(http.MethodPost)

	r.HandleFunc("/xml", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<slides title="Sample Slide Show">
  <slide id="slide-title"><title>Slide 1</title></slide>
  <slide id="slide-overview"><title>Overview</title><item>Why XML is great</item></slide>
</slides>`)
	}).Methods(http.MethodGet)

	r.HandleFunc("/html", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<!doctype html><html><body><h1>Not XML</h1><br></body></html>`)
	}).Methods(http.MethodGet)

	r.HandleFunc("/slow", func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(3 * time.Second)
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<status>finally</status>`)
	}).Methods(http.MethodGet)

	log.Printf("xmlmock listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}
