package state

import (
	"encoding/hex"
	"fmt"
)

var (
	rolePrefix    = "role/"
	noncePrefix   = "voucher/nonce/"
	accountPrefix = "account/"
	itemPrefix    = "item/"
	poolKeyFormat = "split/pool/%s/payees"
	shareFormat   = "split/pool/%s/share/"
	royaltyKey    = []byte("split/royalty")
)

func roleKey(role string, addr []byte) []byte {
	return []byte(rolePrefix + role + "/" + hex.EncodeToString(addr))
}

func nonceKey(addr [20]byte) []byte {
	return []byte(noncePrefix + hex.EncodeToString(addr[:]))
}

func accountKey(addr [20]byte) []byte {
	return []byte(accountPrefix + hex.EncodeToString(addr[:]))
}

func itemKey(addr [20]byte) []byte {
	return []byte(itemPrefix + hex.EncodeToString(addr[:]))
}

func poolPayeesKey(pool string) []byte {
	return []byte(fmt.Sprintf(poolKeyFormat, pool))
}

func poolShareKey(pool string, addr [20]byte) []byte {
	return []byte(fmt.Sprintf(shareFormat, pool) + hex.EncodeToString(addr[:]))
}
