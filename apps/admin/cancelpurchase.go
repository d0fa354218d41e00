package main

import (
	"context"
	"fmt"

	"github.com/elimuhub/elimu/core/shop"
)

// cancelPurchase voids a recorded purchase via the administrative ledger
// delete. A purchase that no longer exists counts as already resolved.
func (cli *commandLine) cancelPurchase(itemType shop.ItemType, id string) error {
	if !itemType.Valid() {
		return fmt.Errorf("unknown item type %q", itemType)
	}

	err := cli.ledger.DeletePurchase(context.Background(), itemType, id)
	if err == shop.ErrPurchaseNotFound {
		fmt.Printf("purchase %s not found; nothing to cancel\n", id)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("purchase %s cancelled\n", id)
	return nil
}
