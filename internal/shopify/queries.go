package shopify

// CollectionsByTitleQuery searches collections; the query argument is e.g. `title:"Collectible Trading Cards"`
const CollectionsByTitleQuery = `
query getCollectionsByTitle($query: String!) {
  collections(first: 10, query: $query) {
    edges {
      node {
        id
        title
        handle
      }
    }
  }
}
`

// CollectionsQuery lists collections page by page
const CollectionsQuery = `
query getCollections($first: Int!, $after: String) {
  collections(first: $first, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        title
        handle
        productsCount {
          count
        }
      }
    }
  }
}
`

// ProductVariantsQuery fetches variant ids of a product
const ProductVariantsQuery = `
query getProductVariants($id: ID!, $first: Int!) {
  product(id: $id) {
    id
    variants(first: $first) {
      edges {
        node {
          id
          price
        }
      }
    }
  }
}
`

// Collection is a node of the collections connection
type Collection struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Handle        string `json:"handle"`
	ProductsCount struct {
		Count int `json:"count"`
	} `json:"productsCount"`
}
