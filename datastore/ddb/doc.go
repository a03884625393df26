/*
Package ddb provides a DynamoDB implementation of the SnapshotStore interface.

Each entity of the snapshot is stored as one item, stamped with the generation
of the Save that wrote it:

	PK         = "GEN#<generation>#{__class__}"   // e.g. "GEN#6f1c...#User"
	SK         = "{id}"                          // the entity identity
	Generation = "<generation>"
	Key        = "User.2b3c..."                  // composite registry key
	EntityType = "User"
	Body       = "{...}"                         // the serialized record as JSON

A single pointer item (PK "#SNAPSHOT", SK "#CURRENT") names the committed
generation in its Current attribute, together with the item count.

Save writes the new generation in BatchWriteItem calls of up to 25 requests,
then commits it with a conditional PutItem on the pointer, and finally deletes
the items of every other generation. Load reads the pointer and scans only the
committed generation, so a Save that fails part way never becomes visible; its
stray items are removed by the next successful Save. The conditional commit
also rejects a Save whose view of the pointer was overtaken by another writer.

The per-item keys come from a macro template (DefaultKeyTemplate) and can be
changed with WithKeyTemplate. The record is kept as JSON in Body because
DynamoDB normalises numbers, which would turn a float 3.0 into an integer on
reload. Unprocessed items and throttling errors are retried with a linear
backoff:

	client, _ := ddb.NewClient(ctx, ddb.ClientConfig{Region: "us-east-1"})
	store := ddb.New(client, "entities",
	    storagemodels.WithMaxRetries(5),
	    storagemodels.WithProgressHandler(func(p storagemodels.SaveProgress) {
	        log.Printf("wrote %d items in %d batches", p.ItemsWritten, p.BatchesWritten)
	    }),
	).WithLogger(logger)

The table needs a string partition key PK and a string sort key SK.
*/
package ddb
