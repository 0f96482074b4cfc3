// Command inspect prints the chat records of a Badger database as a table.
// The database is opened read-only, the server may keep running.
package main

import (
	"chat-relay/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (chat:, msg:, pair:, userchat:)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("No database path, use -db or BADGER_FILEPATH")
	}

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "ID", "At", "Detail"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				record := repositories.Describe(key, v)
				at := "--:--:--"
				if !record.At.IsZero() {
					at = record.At.Format("2006-01-02 15:04:05")
				}
				table.Append([]string{key, colorize(record.Kind), shorten(record.ID), at, record.Detail})
				return nil
			})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Println(color.Gray.Sprintf("%d record(s) under %q", count, *prefix))
}

func colorize(kind string) string {
	switch kind {
	case "CHAT":
		return color.Cyan.Sprint(kind)
	case "MSG":
		return color.Green.Sprint(kind)
	default:
		return color.Yellow.Sprint(kind)
	}
}

// shorten keeps the first 8 characters of an id for readability.
func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return strings.TrimSpace(id)
}
