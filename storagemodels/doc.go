/*
Package storagemodels defines the tuning knobs shared by remote snapshot stores.

StoreOptions:
Configuration for paging and batching when a snapshot is written to or read
from a remote backend:

	store := ddb.New(client, "entities",
	    storagemodels.WithPageSize(50),
	    storagemodels.WithBatchSize(25),
	    storagemodels.WithMaxRetries(5),
	    storagemodels.WithRetryBackoff(100*time.Millisecond),
	    storagemodels.WithProgressHandler(func(p storagemodels.SaveProgress) {
	        log.Printf("wrote %d, deleted %d", p.ItemsWritten, p.ItemsDeleted)
	    }),
	)

Apply resolves the options against DefaultStoreOptions and clamps the batch size
to the 25-request limit of BatchWriteItem.
*/
package storagemodels
