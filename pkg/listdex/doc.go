// Package listdex embeds the listdex listing engine in a Go program.
//
// A Client serves search, filter, sort and facet queries over in-memory
// snapshots of one or more datasets. Snapshots come from JSON/YAML files,
// Redis or Valkey hashes, SQLite queries or a caller-supplied function.
//
//	client, err := listdex.New(ctx,
//	    listdex.WithRedis("localhost:6379", ""),
//	    listdex.WithDataset(listdex.Dataset{
//	        Name:       "parts",
//	        Source:     listdex.SourceRedis,
//	        Location:   "part:*",
//	        Searchable: []string{"name", "sku"},
//	        Schema:     map[string]string{"price": "number"},
//	        Collation:  "ar",
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	page, err := client.Query(ctx, "parts", listdex.Query{
//	    Text:    "فلتر",
//	    Filters: []listdex.Filter{listdex.Range("price", listdex.Float(10), nil)},
//	    Sort:    &listdex.Sort{Field: "price", Desc: true},
//	})
package listdex
