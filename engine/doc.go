// SPDX-License-Identifier: EPL-2.0

// Package engine ties a device to a mixing graph.
//
//	e := engine.New(engine.WithConfig(cfg))
//	if err := e.Open(0, 0); err != nil {
//		return err
//	}
//	defer e.Close()
//
//	sb, _ := e.LoadSound("hit.wav")
//	_, _ = e.PlaySound(sb, false, nil)
//	e.OnFinished.Add(func(id uuid.UUID) { fmt.Println("done", id) })
//
//	for range time.Tick(10 * time.Millisecond) {
//		e.Update()
//	}
package engine
