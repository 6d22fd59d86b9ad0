package waypoint_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/adapters/hash"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/urlpath"
)

func ExampleNewMemory() {
	ctx := context.Background()
	h, err := waypoint.NewMemory(ctx, waypoint.WithInitialEntries("/home"))
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	h.Listen(func(u domain.Update) {
		fmt.Println(u.Action, u.Location.Path.String(), u.Index)
	})

	_ = h.Push(ctx, "/settings?tab=profile", nil)
	_ = h.Replace(ctx, "?tab=security", nil)
	_ = h.Back(ctx)

	// Output:
	// PUSH /settings?tab=profile 1
	// REPLACE /settings?tab=security 1
	// POP /home 0
}

func ExampleHistory_Block() {
	ctx := context.Background()
	h, err := waypoint.NewMemory(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	var pending domain.Transition
	unblock := h.Block(func(tx domain.Transition) {
		fmt.Println("blocked", tx.Action, tx.Location.Path.String())
		pending = tx
	})

	_ = h.Push(ctx, "/checkout", nil)
	fmt.Println("still at", h.Location().Path.String())

	unblock()
	_ = pending.Retry(ctx)
	fmt.Println("now at", h.Location().Path.String())

	// Output:
	// blocked PUSH /checkout
	// still at /
	// now at /checkout
}

func ExampleNewHash() {
	ctx := context.Background()
	sh := memory.NewSessionHistory()
	h, err := waypoint.NewHash(ctx, sh, []hash.Option{hash.WithHashType(urlpath.HashBang)})
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	_ = h.Push(ctx, "/users/42", nil)

	entry, _ := sh.Current(ctx)
	fmt.Println(entry.URL)
	fmt.Println(h.CreateHref("/about"))

	// Output:
	// #!/users/42
	// #!/about
}
